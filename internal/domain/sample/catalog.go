package sample

// StageGroup determines which stage codes a parasite field accepts.
type StageGroup string

const (
	GroupProtozoan StageGroup = "PROTOZOAN"
	GroupCoccidian StageGroup = "COCCIDIAN"
	GroupHelminth  StageGroup = "HELMINTH"
	GroupCestode   StageGroup = "CESTODE"
)

// stageLabels maps each group's valid non-empty codes to their Spanish
// report labels. The empty code means "no se observa" for every group and
// is handled separately.
var stageLabels = map[StageGroup]map[string]string{
	GroupProtozoan: {
		"T":  "Trofozoíto",
		"Q":  "Quiste",
		"TQ": "Trofozoíto y Quiste",
	},
	GroupCoccidian: {
		"O": "Ooquiste",
	},
	GroupHelminth: {
		"H": "Huevos",
		"L": "Larva",
		"G": "Gusano Adulto",
	},
	GroupCestode: {
		"H": "Huevos",
		"P": "Proglótidos",
		"G": "Gusano Adulto",
	},
}

// ParasiteField is one entry of the fixed reporting catalog.
type ParasiteField struct {
	ID    string
	Label string
	Group StageGroup
}

// Catalog is the full parasite panel in reporting order. The order is
// load-bearing: findings, alert evaluation and exports all follow it.
// Taenia is the only field staged as a cestode; Hymenolepis and
// Rodentolepis are reported with helminth stages.
var Catalog = []ParasiteField{
	{ID: "entamoeba_histolytica", Label: "Entamoeba histolytica", Group: GroupProtozoan},
	{ID: "entamoeba_coli", Label: "Entamoeba coli", Group: GroupProtozoan},
	{ID: "entamoeba_hartmanni", Label: "Entamoeba hartmanni", Group: GroupProtozoan},
	{ID: "endolimax_nana", Label: "Endolimax nana", Group: GroupProtozoan},
	{ID: "iodamoeba_butschlii", Label: "Iodamoeba bütschlii", Group: GroupProtozoan},
	{ID: "giardia_intestinalis", Label: "Giardia intestinalis", Group: GroupProtozoan},
	{ID: "pentatrichomonas_hominis", Label: "Pentatrichomonas hominis", Group: GroupProtozoan},
	{ID: "chilomastix_mesnili", Label: "Chilomastix mesnili", Group: GroupProtozoan},
	{ID: "balantidium_coli", Label: "Balantidium coli", Group: GroupProtozoan},
	{ID: "blastocystis_sp", Label: "Blastocystis sp", Group: GroupCoccidian},
	{ID: "cystoisospora_belli", Label: "Cystoisospora belli", Group: GroupCoccidian},
	{ID: "cyclospora_cayetanensis", Label: "Cyclospora cayetanensis", Group: GroupCoccidian},
	{ID: "cryptosporidium_spp", Label: "Cryptosporidium spp", Group: GroupCoccidian},
	{ID: "ascaris_lumbricoides", Label: "Ascaris lumbricoides", Group: GroupHelminth},
	{ID: "trichuris_trichiura", Label: "Trichuris trichiura", Group: GroupHelminth},
	{ID: "necator_americanus", Label: "Necator americanus", Group: GroupHelminth},
	{ID: "strongyloides_stercoralis", Label: "Strongyloides stercoralis", Group: GroupHelminth},
	{ID: "enterobius_vermicularis", Label: "Enterobius vermicularis", Group: GroupHelminth},
	{ID: "taenia_spp", Label: "Taenia spp", Group: GroupCestode},
	{ID: "hymenolepis_diminuta", Label: "Hymenolepis diminuta", Group: GroupHelminth},
	{ID: "rodentolepis_nana", Label: "Rodentolepis nana", Group: GroupHelminth},
}

var (
	fieldByID    = make(map[string]ParasiteField, len(Catalog))
	fieldByLabel = make(map[string]string, len(Catalog))
)

func init() {
	for _, f := range Catalog {
		fieldByID[f.ID] = f
		fieldByLabel[f.Label] = f.ID
	}
}

// FieldByID looks up a catalog entry by its field identifier.
func FieldByID(id string) (ParasiteField, bool) {
	f, ok := fieldByID[id]
	return f, ok
}

// FieldIDForLabel maps a display label back to its field identifier.
// Unmapped labels return "" and are skipped by alert evaluation.
func FieldIDForLabel(label string) string {
	return fieldByLabel[label]
}

// ValidStage reports whether code is acceptable for the group. The empty
// code (not observed) is always valid.
func ValidStage(group StageGroup, code string) bool {
	if code == "" {
		return true
	}
	_, ok := stageLabels[group][code]
	return ok
}

// StageLabel returns the Spanish label for a stage code within a group.
func StageLabel(group StageGroup, code string) string {
	if code == "" {
		return "No se observa"
	}
	if label, ok := stageLabels[group][code]; ok {
		return label
	}
	return code
}
