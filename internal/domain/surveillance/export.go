package surveillance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lnp/vigilancia/internal/domain/expediente"
	"github.com/lnp/vigilancia/internal/domain/sample"
)

var (
	consistencyLabels = map[string]string{
		sample.ConsistencyFormed: "Formada",
		sample.ConsistencySoft:   "Blanda",
		sample.ConsistencyLiquid: "Líquida/Diarreica",
	}
	mucusLabels = map[string]string{
		sample.MucusNone:     "No se observa",
		sample.MucusScarce:   "Escaso",
		sample.MucusModerate: "Moderado",
		sample.MucusAbundant: "Abundante",
	}
	presenceLabels = map[string]string{
		sample.BloodAbsent:  "No",
		sample.BloodPresent: "Sí",
	}
	intensityLabels = map[string]string{
		sample.IntensityLight:    "Leve",
		sample.IntensityModerate: "Moderada",
		sample.IntensitySevere:   "Severa",
	}
	sexLabels = map[string]string{
		expediente.SexMale:   "Masculino",
		expediente.SexFemale: "Femenino",
	}
	resultLabels = map[string]string{
		sample.ResultPositive: "Positivo",
		sample.ResultNegative: "Negativo",
	}
)

// SampleExport is the complete denormalized view of one sample, shaped
// for downstream consumers (PowerBI, national reports).
type SampleExport struct {
	SampleID   uuid.UUID         `json:"muestra_id"`
	ExamNumber string            `json:"numero_examen"`
	ExamDate   string            `json:"fecha_examen"`
	Analyst    string            `json:"responsable"`
	Record     ExportRecord      `json:"expediente"`
	Facility   ExportFacility    `json:"centro_atencion"`
	Physical   ExportPhysical    `json:"examen_fisico"`
	Result     ExportResult      `json:"resultado"`
	Findings   map[string]string `json:"parasitos_encontrados"`
	KatoKatz   ExportKatoKatz    `json:"kato_katz"`
	Notes      string            `json:"observaciones"`
}

type ExportRecord struct {
	DNI          string `json:"dni"`
	FullName     string `json:"nombre_completo"`
	Sex          string `json:"sexo"`
	Age          int    `json:"edad"`
	Department   string `json:"departamento"`
	Municipality string `json:"municipio"`
}

type ExportFacility struct {
	Code     string       `json:"codigo"`
	Name     string       `json:"nombre"`
	Regional bool         `json:"es_regional"`
	Region   ExportRegion `json:"region"`
}

type ExportRegion struct {
	Number int    `json:"numero"`
	Name   string `json:"nombre"`
}

type ExportPhysical struct {
	Consistency  string `json:"consistencia"`
	Mucus        string `json:"moco"`
	VisibleBlood string `json:"sangre_macroscopica"`
}

type ExportResult struct {
	Code        string `json:"codigo"`
	Description string `json:"descripcion"`
}

type ExportKatoKatz struct {
	Intensity *string `json:"intensidad"`
}

// ExportSample joins the sample with its record, facility and region into
// one flat document. Findings carry display labels keyed by parasite name.
func (q *Queries) ExportSample(ctx context.Context, sampleID uuid.UUID) (*SampleExport, error) {
	var (
		e            SampleExport
		examDate     time.Time
		birthDate    time.Time
		sex          string
		consistency  string
		mucus        string
		blood        string
		katoKatz     string
		result       string
		firstName    string
		lastName     string
		parasites    map[string]string
		municipality *string
		department   *string
	)
	err := q.conn(ctx).QueryRow(ctx, `
		SELECT s.id, s.exam_number, s.exam_date, s.analyst, s.consistency,
			   s.mucus, s.visible_blood, s.parasites, s.kato_katz, s.result,
			   s.observations,
			   p.dni, p.first_name, p.last_name, p.sex, p.birth_date,
			   m.name, d.name,
			   f.code, f.name, f.regional,
			   r.number, r.name
		FROM sample s
		JOIN patient_record p ON p.id = s.record_id
		LEFT JOIN municipality m ON m.id = p.municipality_id
		LEFT JOIN department d ON d.id = m.department_id
		JOIN facility f ON f.id = s.facility_id
		JOIN region r ON r.id = f.region_id
		WHERE s.id = $1`, sampleID).
		Scan(&e.SampleID, &e.ExamNumber, &examDate, &e.Analyst, &consistency,
			&mucus, &blood, &parasites, &katoKatz, &result,
			&e.Notes,
			&e.Record.DNI, &firstName, &lastName, &sex, &birthDate,
			&municipality, &department,
			&e.Facility.Code, &e.Facility.Name, &e.Facility.Regional,
			&e.Facility.Region.Number, &e.Facility.Region.Name)
	if err != nil {
		return nil, err
	}

	e.ExamDate = examDate.Format("2006-01-02")
	rec := expediente.Record{FirstName: firstName, LastName: lastName, BirthDate: birthDate}
	e.Record.FullName = rec.FullName()
	e.Record.Age = rec.Age(examDate)
	e.Record.Sex = sexLabels[sex]
	if municipality != nil {
		e.Record.Municipality = *municipality
	}
	if department != nil {
		e.Record.Department = *department
	}

	e.Physical = ExportPhysical{
		Consistency:  consistencyLabels[consistency],
		Mucus:        mucusLabels[mucus],
		VisibleBlood: presenceLabels[blood],
	}
	e.Result = ExportResult{Code: result, Description: resultLabels[result]}

	e.Findings = make(map[string]string)
	_, findings := sample.Classify(parasites)
	for _, f := range findings {
		e.Findings[f.Label] = f.StageLabel
	}

	if katoKatz != "" {
		label := intensityLabels[katoKatz]
		e.KatoKatz.Intensity = &label
	}
	return &e, nil
}
