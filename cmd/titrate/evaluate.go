package main

import (
	"github.com/aretw0/titrate/internal/cli"
	"github.com/aretw0/titrate/internal/dto"
	"github.com/aretw0/titrate/pkg/domain"
	"github.com/spf13/cobra"
)

var doseFlags = map[string]domain.MedicationClass{
	"raasi":        domain.RAASi,
	"beta-blocker": domain.BetaBlocker,
	"mra":          domain.MRA,
	"sglt2i":       domain.SGLT2i,
}

var signalFlags = []struct {
	name  string
	usage string
	field func(*domain.ClinicalSignals) **float64
}{
	{"heart-rate", "Heart rate (bpm)", func(s *domain.ClinicalSignals) **float64 { return &s.HeartRate }},
	{"systolic-bp", "Systolic blood pressure (mmHg)", func(s *domain.ClinicalSignals) **float64 { return &s.SystolicBP }},
	{"potassium", "Serum potassium (mmol/L)", func(s *domain.ClinicalSignals) **float64 { return &s.Potassium }},
	{"low-sbp-pct", "Percent of home readings below the systolic cutoff", func(s *domain.ClinicalSignals) **float64 { return &s.LowSystolicTimePct }},
	{"low-hr-pct", "Percent of home readings below the heart rate cutoff", func(s *domain.ClinicalSignals) **float64 { return &s.LowHeartRateTimePct }},
	{"creatinine", "Serum creatinine (mg/dL)", func(s *domain.ClinicalSignals) **float64 { return &s.Creatinine }},
	{"creatinine-change", "Creatinine change from baseline (%)", func(s *domain.ClinicalSignals) **float64 { return &s.CreatininePctChange }},
	{"egfr", "eGFR (mL/min/1.73m2); estimated from creatinine when omitted", func(s *domain.ClinicalSignals) **float64 { return &s.EGFR }},
	{"age", "Age (years), for the eGFR estimate", func(s *domain.ClinicalSignals) **float64 { return &s.Age }},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Recommend the next titration step for one patient",
	Long: `Evaluates current doses (0-4 per class) and clinical signals and prints
one recommendation. Doses come from flags or from a JSON request file
(--input, "-" for stdin) in the same shape as the HTTP POST /evaluate body.`,
	Example: `  titrate evaluate --policy policy.yaml --raasi 2 --beta-blocker 3 --mra 1 --sglt2i 1 --heart-rate 44
  titrate evaluate --policy policy.yaml --input request.json --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		input, _ := flags.GetString("input")
		asJSON, _ := flags.GetBool("json")

		req := dto.EvaluateRequest{Doses: map[string]int{}}
		for name, class := range doseFlags {
			if flags.Changed(name) {
				req.Doses[string(class)], _ = flags.GetInt(name)
			}
		}
		for _, f := range signalFlags {
			if flags.Changed(f.name) {
				v, _ := flags.GetFloat64(f.name)
				*f.field(&req.Signals) = &v
			}
		}
		req.LastUptitrated, _ = flags.GetString("last-uptitrated")
		sex, _ := flags.GetString("sex")
		req.Signals.Sex = domain.Sex(sex)
		symptoms, _ := flags.GetStringSlice("symptom")
		parsed, err := domain.ParseSymptoms(symptoms)
		if err != nil {
			return err
		}
		req.Signals.Symptoms = parsed

		return cli.Evaluate(cmd.Context(), cli.EvaluateOptions{
			Options:   commonOptions(cmd),
			InputPath: input,
			Request:   req,
			JSON:      asJSON,
			Out:       cmd.OutOrStdout(),
			In:        cmd.InOrStdin(),
		})
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	flags := evaluateCmd.Flags()
	for name, class := range doseFlags {
		flags.Int(name, 0, "Dose level of "+string(class)+" (0 = not started, 4 = target)")
	}
	for _, f := range signalFlags {
		flags.Float64(f.name, 0, f.usage)
	}
	flags.String("sex", "", "Sex (F or M), for the eGFR estimate")
	flags.StringSlice("symptom", nil, "Reported symptom (dizziness, lightheadedness, syncope, presyncope, fatigue)")
	flags.String("last-uptitrated", "", "Class most recently up-titrated")
	flags.StringP("input", "i", "", "JSON request file, or - for stdin")
	flags.Bool("json", false, "Print the full evaluation as JSON")
}
