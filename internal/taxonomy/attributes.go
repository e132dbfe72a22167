package taxonomy

// Attribute families.
const (
	FamilyAnatomical   = "anatomical"
	FamilyParenchymal  = "parenchymal"
	FamilyPleural      = "pleural"
	FamilyVascular     = "vascular"
	FamilyMediastinal  = "mediastinal"
	FamilyBony         = "bony"
	FamilyDevice       = "device"
	FamilyTemporal     = "temporal"
	FamilySeverity     = "severity"
	FamilyDistribution = "distribution"
	FamilySpecial      = "special"
)

// Normalized attribute vocabulary (SGRRG / Chest ImaGenome style). Order is
// the matrix column order and must stay stable.
var defaultAttributes = []Attribute{
	// Anatomical / size.
	{Label: "normal", Family: FamilyAnatomical},
	{Label: "enlarged", Family: FamilyAnatomical},
	{Label: "cardiomegaly", Family: FamilyAnatomical},
	{Label: "tortuous", Family: FamilyAnatomical},
	{Label: "ectatic", Family: FamilyAnatomical},
	{Label: "displaced", Family: FamilyAnatomical},
	{Label: "shifted", Family: FamilyAnatomical},
	{Label: "elevated", Family: FamilyAnatomical},
	{Label: "flattened", Family: FamilyAnatomical},

	// Lung parenchyma.
	{Label: "clear", Family: FamilyParenchymal},
	{Label: "opacity", Family: FamilyParenchymal},
	{Label: "lung opacity", Family: FamilyParenchymal},
	{Label: "consolidation", Family: FamilyParenchymal},
	{Label: "infiltrate", Family: FamilyParenchymal},
	{Label: "nodule", Family: FamilyParenchymal},
	{Label: "mass", Family: FamilyParenchymal},
	{Label: "atelectasis", Family: FamilyParenchymal},
	{Label: "collapse", Family: FamilyParenchymal},
	{Label: "hyperinflation", Family: FamilyParenchymal},
	{Label: "hyperlucency", Family: FamilyParenchymal},
	{Label: "ground glass opacity", Family: FamilyParenchymal},
	{Label: "interstitial thickening", Family: FamilyParenchymal},
	{Label: "fibrosis", Family: FamilyParenchymal},
	{Label: "scarring", Family: FamilyParenchymal},
	{Label: "granuloma", Family: FamilyParenchymal},
	{Label: "calcification", Family: FamilyParenchymal},
	{Label: "cavity", Family: FamilyParenchymal},
	{Label: "cyst", Family: FamilyParenchymal},

	// Pleural.
	{Label: "pleural effusion", Family: FamilyPleural},
	{Label: "pneumothorax", Family: FamilyPleural},
	{Label: "pleural thickening", Family: FamilyPleural},
	{Label: "pleural calcification", Family: FamilyPleural},
	{Label: "blunted costophrenic angle", Family: FamilyPleural},

	// Vascular.
	{Label: "pulmonary edema", Family: FamilyVascular},
	{Label: "vascular congestion", Family: FamilyVascular},
	{Label: "pulmonary hypertension", Family: FamilyVascular},
	{Label: "vascular calcification", Family: FamilyVascular},

	// Mediastinal.
	{Label: "mediastinal widening", Family: FamilyMediastinal},
	{Label: "hilar enlargement", Family: FamilyMediastinal},
	{Label: "lymphadenopathy", Family: FamilyMediastinal},

	// Bony.
	{Label: "fracture", Family: FamilyBony},
	{Label: "degenerative changes", Family: FamilyBony},
	{Label: "lytic lesion", Family: FamilyBony},
	{Label: "sclerotic lesion", Family: FamilyBony},
	{Label: "osseous abnormality", Family: FamilyBony},

	// Devices / lines.
	{Label: "endotracheal tube", Family: FamilyDevice},
	{Label: "nasogastric tube", Family: FamilyDevice},
	{Label: "central line", Family: FamilyDevice},
	{Label: "pacemaker", Family: FamilyDevice},
	{Label: "icd", Family: FamilyDevice},
	{Label: "chest tube", Family: FamilyDevice},
	{Label: "surgical clips", Family: FamilyDevice},
	{Label: "prosthetic valve", Family: FamilyDevice},

	// Temporal / interval change.
	{Label: "acute", Family: FamilyTemporal},
	{Label: "chronic", Family: FamilyTemporal},
	{Label: "unchanged", Family: FamilyTemporal},
	{Label: "improved", Family: FamilyTemporal},
	{Label: "worsened", Family: FamilyTemporal},
	{Label: "new", Family: FamilyTemporal},
	{Label: "old", Family: FamilyTemporal},

	// Severity.
	{Label: "mild", Family: FamilySeverity},
	{Label: "moderate", Family: FamilySeverity},
	{Label: "severe", Family: FamilySeverity},
	{Label: "minimal", Family: FamilySeverity},
	{Label: "extensive", Family: FamilySeverity},

	// Distribution.
	{Label: "diffuse", Family: FamilyDistribution},
	{Label: "focal", Family: FamilyDistribution},
	{Label: "patchy", Family: FamilyDistribution},
	{Label: "bilateral", Family: FamilyDistribution},
	{Label: "unilateral", Family: FamilyDistribution},
	{Label: "multifocal", Family: FamilyDistribution},

	// Special signs.
	{Label: "air bronchogram", Family: FamilySpecial},
	{Label: "silhouette sign", Family: FamilySpecial},
	{Label: "free air", Family: FamilySpecial},
	{Label: "subcutaneous emphysema", Family: FamilySpecial},
}
