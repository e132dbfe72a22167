package taxonomy

// Report phrasings that refer to each object. All lowercase; matching is
// case-insensitive on word boundaries. The object name itself is always an
// implicit alias.
var defaultAliases = map[string][]string{
	"left lung":  {"left hemithorax"},
	"right lung": {"right hemithorax"},
	"cardiac silhouette": {
		"heart", "heart size", "cardiac contour", "cardiac shadow",
		"cardiomediastinal silhouette", "cardiomegaly",
	},
	"mediastinum": {"mediastinal contour", "cardiomediastinal silhouette"},
	"left lower lung zone": {
		"left lower lobe", "left lower lung", "left base", "left lung base",
		"left basilar",
	},
	"right lower lung zone": {
		"right lower lobe", "right lower lung", "right base", "right lung base",
		"right basilar",
	},
	"right hilar structures": {"right hilum", "right hilar", "right hilus"},
	"left hilar structures":  {"left hilum", "left hilar", "left hilus"},
	"upper mediastinum":      {"superior mediastinum"},
	"left costophrenic angle": {
		"left costophrenic sulcus", "left cp angle",
	},
	"right costophrenic angle": {
		"right costophrenic sulcus", "right cp angle",
	},
	"left mid lung zone":  {"left mid lung", "left midlung"},
	"right mid lung zone": {"right mid lung", "right midlung"},
	"aortic arch":         {"aortic knob", "thoracic aorta"},
	"right upper lung zone": {"right upper lobe", "right upper lung"},
	"left upper lung zone":  {"left upper lobe", "left upper lung"},
	"right hemidiaphragm":   {"right diaphragm"},
	"right clavicle":        {},
	"left clavicle":         {},
	"left hemidiaphragm":    {"left diaphragm"},
	"right apical zone":     {"right apex", "right apical"},
	"trachea":               {"tracheal"},
	"left apical zone":      {"left apex", "left apical"},
	"carina":                {"carinal"},
	"svc":                   {"superior vena cava"},
	"right atrium":          {"right atrial"},
	"cavoatrial junction":   {},
	"abdomen":               {"upper abdomen", "abdominal"},
	"spine":                 {"thoracic spine", "vertebral bodies", "vertebrae"},
}
