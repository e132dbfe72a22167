package taxonomy

// The 29 Chest ImaGenome anatomical objects, in fixed ID order. Scene graphs
// always carry exactly one entry per object.
var defaultObjects = []Object{
	{Name: "left lung", ID: 0},
	{Name: "right lung", ID: 1},
	{Name: "cardiac silhouette", ID: 2},
	{Name: "mediastinum", ID: 3},
	{Name: "left lower lung zone", ID: 4},
	{Name: "right lower lung zone", ID: 5},
	{Name: "right hilar structures", ID: 6},
	{Name: "left hilar structures", ID: 7},
	{Name: "upper mediastinum", ID: 8},
	{Name: "left costophrenic angle", ID: 9},
	{Name: "right costophrenic angle", ID: 10},
	{Name: "left mid lung zone", ID: 11},
	{Name: "right mid lung zone", ID: 12},
	{Name: "aortic arch", ID: 13},
	{Name: "right upper lung zone", ID: 14},
	{Name: "left upper lung zone", ID: 15},
	{Name: "right hemidiaphragm", ID: 16},
	{Name: "right clavicle", ID: 17},
	{Name: "left clavicle", ID: 18},
	{Name: "left hemidiaphragm", ID: 19},
	{Name: "right apical zone", ID: 20},
	{Name: "trachea", ID: 21},
	{Name: "left apical zone", ID: 22},
	{Name: "carina", ID: 23},
	{Name: "svc", ID: 24},
	{Name: "right atrium", ID: 25},
	{Name: "cavoatrial junction", ID: 26},
	{Name: "abdomen", ID: 27},
	{Name: "spine", ID: 28},
}

// Finding categories used in attribute triples.
var defaultCategories = []string{
	"anatomicalfinding",
	"disease",
	"nlp",
	"technicalassessment",
	"tubesandlines",
	"devices",
}
