package triage

// Curated clinical rule tables. Conservative by design: any hit on the
// immediate list yields an immediate verdict without evaluating later layers.

var immediateFlags = []string{
	"severe chest pain",
	"crushing chest pain",
	"chest pain radiating to arm",
	"chest pain radiating to jaw",
	"sudden severe headache",
	"worst headache of life",
	"syncope",
	"loss of consciousness",
	"uncontrolled bleeding",
	"severe bleeding",
	"hemoptysis",
	"coughing up blood",
	"severe shortness of breath",
	"difficulty breathing",
	"unable to breathe",
	"stroke symptoms",
	"facial drooping",
	"slurred speech",
	"sudden weakness",
	"sudden numbness",
	"severe allergic reaction",
	"anaphylaxis",
	"throat swelling",
	"severe abdominal pain",
	"rigid abdomen",
	"suicidal thoughts",
	"suicide",
	"self harm",
	"seizure",
	"convulsion",
	"overdose",
	"toxic ingestion",
	"not breathing",
	"severe head injury",
}

var urgentFlags = []string{
	"chest pain",
	"chest discomfort",
	"shortness of breath",
	"difficulty breathing on exertion",
	"persistent fever",
	"high fever",
	"severe pain",
	"sudden vision loss",
	"sudden hearing loss",
	"severe headache",
	"persistent vomiting",
	"severe diarrhea",
	"blood in stool",
	"blood in urine",
	"severe dizziness",
	"confusion",
	"altered mental status",
}

var combinationRules = []CombinationRule{
	{
		Name:      "cardiac_risk",
		Symptoms:  []string{"chest pain", "shortness of breath", "sweating"},
		Threshold: 2,
		Tier:      TierImmediate,
		Rationale: "Multiple cardiac symptoms present",
	},
	{
		Name:      "sepsis_risk",
		Symptoms:  []string{"fever", "confusion", "rapid heart rate", "low blood pressure"},
		Threshold: 2,
		Tier:      TierImmediate,
		Rationale: "Possible sepsis - requires immediate evaluation",
	},
	{
		Name:      "respiratory_distress",
		Symptoms:  []string{"shortness of breath", "chest pain", "rapid breathing"},
		Threshold: 2,
		Tier:      TierImmediate,
		Rationale: "Respiratory distress pattern",
	},
}

var vitalThresholds = map[string]VitalThreshold{
	"heart_rate":        {Min: 40, Max: 120, Tier: TierUrgent},
	"systolic_bp":       {Min: 90, Max: 180, Tier: TierUrgent},
	"diastolic_bp":      {Min: 60, Max: 110, Tier: TierUrgent},
	"respiratory_rate":  {Min: 10, Max: 25, Tier: TierUrgent},
	"temperature_f":     {Min: 95.0, Max: 103.0, Tier: TierUrgent},
	"temperature_c":     {Min: 35.0, Max: 39.5, Tier: TierUrgent},
	"spo2":              {Min: 92, Max: 100, Tier: TierImmediate},
	"oxygen_saturation": {Min: 92, Max: 100, Tier: TierImmediate},
}
