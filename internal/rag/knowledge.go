package rag

// Curated medical knowledge base, heart-focused, compiled into the binary.
// Entries are indexed alongside user reports on every rebuild.

var knowledgeBase = []Document{
	{
		ID:     "kb_mi_presentation",
		Topic:  "Myocardial Infarction Presentation",
		Source: "cardiology_handbook",
		Content: "Classic myocardial infarction presents with crushing substernal chest pain " +
			"radiating to the left arm or jaw, accompanied by diaphoresis, nausea, and dyspnea. " +
			"Atypical presentations are common in women, diabetics, and the elderly, who may report " +
			"fatigue, epigastric discomfort, or isolated shortness of breath. Time to reperfusion " +
			"drives outcomes; any suspected MI warrants immediate emergency evaluation and ECG.",
	},
	{
		ID:     "kb_angina_types",
		Topic:  "Stable and Unstable Angina",
		Source: "cardiology_handbook",
		Content: "Stable angina is exertional chest discomfort relieved by rest or nitroglycerin " +
			"within minutes, reflecting fixed coronary stenosis. Unstable angina is new-onset, " +
			"crescendo, or rest pain and signals plaque instability. Unstable angina is an acute " +
			"coronary syndrome and requires urgent assessment with serial troponins and ECG.",
	},
	{
		ID:     "kb_heart_failure",
		Topic:  "Heart Failure Symptoms",
		Source: "cardiology_handbook",
		Content: "Heart failure produces exertional dyspnea, orthopnea, paroxysmal nocturnal " +
			"dyspnea, and dependent edema. Left-sided failure causes pulmonary congestion; " +
			"right-sided failure causes peripheral edema, hepatomegaly, and jugular venous " +
			"distension. Daily weights and escalating diuretic needs track decompensation.",
	},
	{
		ID:     "kb_afib",
		Topic:  "Atrial Fibrillation",
		Source: "arrhythmia_guide",
		Content: "Atrial fibrillation presents with an irregularly irregular pulse, palpitations, " +
			"fatigue, and reduced exercise tolerance. Stroke risk is assessed with CHA2DS2-VASc " +
			"scoring and usually warrants anticoagulation. Rapid ventricular response with " +
			"hypotension, chest pain, or altered mentation requires emergency rate or rhythm control.",
	},
	{
		ID:     "kb_svt_bradycardia",
		Topic:  "Tachyarrhythmia and Bradycardia",
		Source: "arrhythmia_guide",
		Content: "Supraventricular tachycardia causes abrupt-onset regular palpitations, often " +
			"terminated by vagal maneuvers. Bradycardia below 50 bpm with syncope, dizziness, or " +
			"exertional intolerance suggests conduction disease and may need pacemaker evaluation. " +
			"Holter or event monitoring captures intermittent rhythm disturbances.",
	},
	{
		ID:     "kb_hypertension",
		Topic:  "Hypertension Management",
		Source: "prevention_guide",
		Content: "Hypertension above 140/90 sustained across readings raises cardiovascular risk. " +
			"Lifestyle measures include sodium restriction, weight loss, aerobic exercise, and " +
			"alcohol moderation. Readings above 180/120 with headache, visual change, chest pain, " +
			"or neurological symptoms constitute hypertensive emergency.",
	},
	{
		ID:     "kb_lipids",
		Topic:  "Cholesterol and Cardiovascular Risk",
		Source: "prevention_guide",
		Content: "Elevated LDL cholesterol is a primary modifiable driver of atherosclerosis. " +
			"Risk stratification combines lipid panels with age, blood pressure, smoking, and " +
			"diabetes status. Statin therapy is indicated by calculated ten-year risk; family " +
			"history of premature coronary disease lowers the treatment threshold.",
	},
	{
		ID:     "kb_pericarditis",
		Topic:  "Pericarditis",
		Source: "cardiology_handbook",
		Content: "Pericarditis causes sharp pleuritic chest pain improved by sitting forward and " +
			"worsened by lying flat, often after a viral illness. A friction rub and diffuse ST " +
			"elevation support the diagnosis. Most cases respond to NSAIDs and colchicine, but " +
			"effusion with tamponade physiology is an emergency.",
	},
	{
		ID:     "kb_noncardiac_chest_pain",
		Topic:  "Non-Cardiac Chest Pain",
		Source: "differential_guide",
		Content: "Musculoskeletal chest wall pain is reproducible on palpation and movement. " +
			"Gastroesophageal reflux causes burning retrosternal discomfort after meals, worse " +
			"supine, relieved by antacids. Panic attacks produce chest tightness with " +
			"hyperventilation, paresthesias, and a sense of doom. Cardiac causes must be excluded " +
			"before attributing chest pain to benign origins.",
	},
	{
		ID:     "kb_aortic_dissection",
		Topic:  "Aortic Dissection",
		Source: "emergency_guide",
		Content: "Aortic dissection presents with abrupt tearing chest or back pain, often with " +
			"pulse deficits or blood pressure differentials between arms. It is rapidly lethal " +
			"and mimics myocardial infarction; widened mediastinum or high clinical suspicion " +
			"mandates immediate CT angiography and surgical consultation.",
	},
	{
		ID:     "kb_pe",
		Topic:  "Pulmonary Embolism",
		Source: "emergency_guide",
		Content: "Pulmonary embolism causes sudden pleuritic chest pain, dyspnea, tachycardia, " +
			"and hypoxia, classically after immobilization or in hypercoagulable states. Massive " +
			"PE produces syncope and shock. Wells scoring guides testing with D-dimer or CT " +
			"pulmonary angiography.",
	},
	{
		ID:     "kb_syncope_workup",
		Topic:  "Syncope Evaluation",
		Source: "differential_guide",
		Content: "Cardiac syncope is abrupt, often exertional or without prodrome, and carries " +
			"high mortality risk; vasovagal syncope follows triggers with prodromal warmth and " +
			"nausea. Exertional syncope suggests aortic stenosis or hypertrophic cardiomyopathy " +
			"and requires echocardiography before return to activity.",
	},
}
