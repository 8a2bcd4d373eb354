package sample

import "testing"

func TestClassify_Empty(t *testing.T) {
	result, findings := Classify(nil)
	if result != ResultNegative {
		t.Errorf("expected NEG, got %s", result)
	}
	if findings != nil {
		t.Errorf("expected no findings, got %v", findings)
	}

	result, findings = Classify(map[string]string{"giardia_intestinalis": ""})
	if result != ResultNegative || findings != nil {
		t.Error("empty stage codes must not produce findings")
	}
}

func TestClassify_SingleFinding(t *testing.T) {
	result, findings := Classify(map[string]string{"giardia_intestinalis": "Q"})
	if result != ResultPositive {
		t.Errorf("expected POS, got %s", result)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.FieldID != "giardia_intestinalis" || f.Label != "Giardia intestinalis" {
		t.Errorf("unexpected finding identity: %+v", f)
	}
	if f.StageCode != "Q" || f.StageLabel != "Quiste" {
		t.Errorf("unexpected stage: %+v", f)
	}
}

func TestClassify_CatalogOrder(t *testing.T) {
	// Input map order is irrelevant; findings follow the catalog.
	values := map[string]string{
		"rodentolepis_nana":     "H",
		"entamoeba_histolytica": "T",
		"ascaris_lumbricoides":  "H",
	}
	_, findings := Classify(values)
	if len(findings) != 3 {
		t.Fatalf("expected 3 findings, got %d", len(findings))
	}
	want := []string{"entamoeba_histolytica", "ascaris_lumbricoides", "rodentolepis_nana"}
	for i, id := range want {
		if findings[i].FieldID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, findings[i].FieldID)
		}
	}
}

func TestClassify_StageLabelsPerGroup(t *testing.T) {
	tests := []struct {
		field string
		code  string
		label string
	}{
		{"entamoeba_coli", "TQ", "Trofozoíto y Quiste"},
		{"cryptosporidium_spp", "O", "Ooquiste"},
		{"necator_americanus", "L", "Larva"},
		{"taenia_spp", "P", "Proglótidos"},
		{"taenia_spp", "G", "Gusano Adulto"},
	}
	for _, tt := range tests {
		_, findings := Classify(map[string]string{tt.field: tt.code})
		if len(findings) != 1 {
			t.Fatalf("%s=%s: expected 1 finding", tt.field, tt.code)
		}
		if findings[0].StageLabel != tt.label {
			t.Errorf("%s=%s: expected label %q, got %q", tt.field, tt.code, tt.label, findings[0].StageLabel)
		}
	}
}

func TestValidateValues(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]string
		wantErr bool
	}{
		{"nil", nil, false},
		{"valid protozoan", map[string]string{"giardia_intestinalis": "T"}, false},
		{"valid empty code", map[string]string{"giardia_intestinalis": ""}, false},
		{"unknown field", map[string]string{"plasmodium_falciparum": "T"}, true},
		{"protozoan code on coccidian", map[string]string{"blastocystis_sp": "T"}, true},
		{"larva on cestode", map[string]string{"taenia_spp": "L"}, true},
		{"proglottids on helminth", map[string]string{"hymenolepis_diminuta": "P"}, true},
		{"lowercase code", map[string]string{"giardia_intestinalis": "q"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateValues(tt.values)
			if (err != nil) != tt.wantErr {
				t.Errorf("got err %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCatalog_Complete(t *testing.T) {
	if len(Catalog) != 21 {
		t.Fatalf("expected 21 catalog entries, got %d", len(Catalog))
	}
	if Catalog[0].ID != "entamoeba_histolytica" {
		t.Errorf("expected catalog to start with entamoeba_histolytica, got %s", Catalog[0].ID)
	}
	if Catalog[len(Catalog)-1].ID != "rodentolepis_nana" {
		t.Errorf("expected catalog to end with rodentolepis_nana, got %s", Catalog[len(Catalog)-1].ID)
	}
	for _, f := range Catalog {
		if FieldIDForLabel(f.Label) != f.ID {
			t.Errorf("label %q does not round-trip to %s", f.Label, f.ID)
		}
	}
}

func TestFieldIDForLabel_Unmapped(t *testing.T) {
	if got := FieldIDForLabel("Plasmodium falciparum"); got != "" {
		t.Errorf("expected empty id for unmapped label, got %q", got)
	}
}

func TestLegacyMismatch(t *testing.T) {
	truth := func(b bool) *bool { return &b }

	tests := []struct {
		name   string
		sample Sample
		want   bool
	}{
		{"no flag", Sample{Result: ResultNegative}, false},
		{"flag agrees negative", Sample{Result: ResultNegative, NoParasitesFlag: truth(true)}, false},
		{"flag agrees positive", Sample{Result: ResultPositive, NoParasitesFlag: truth(false)}, false},
		{"flag says clean but positive", Sample{Result: ResultPositive, NoParasitesFlag: truth(true)}, true},
		{"flag says parasites but negative", Sample{Result: ResultNegative, NoParasitesFlag: truth(false)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sample.LegacyMismatch(); got != tt.want {
				t.Errorf("LegacyMismatch() = %v, want %v", got, tt.want)
			}
		})
	}
}
