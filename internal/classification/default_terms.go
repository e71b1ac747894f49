package classification

// Vocabulary is the built-in term set the classifier matches against.
// Exact and procedure terms and exclusions match on word boundaries;
// patterns are regular expressions over normalized text.
type Vocabulary struct {
	Exact      []string
	Procedures []string
	Patterns   []string
	Exclusions []string
}

// DefaultVocabulary returns the heart failure hospitalization term set.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Exact: []string{
			"heart failure", "hf", "chf", "congestive heart failure",
			"acute heart failure", "acute on chronic heart failure",
			"acute-on-chronic heart failure", "chronic heart failure",
			"heart failure exacerbation", "hf exacerbation", "chf exacerbation",
			"decompensated heart failure", "acute decompensated heart failure", "adhf",
			"cardiac decompensation",
			"left heart failure", "right heart failure",
			"left ventricular failure", "right ventricular failure", "biventricular failure",
			"cardiogenic shock",
			"cardiogenic pulmonary edema", "pulmonary edema", "cardiac pulmonary edema",
			"flash pulmonary edema",
			"volume overload", "fluid overload", "cardiac fluid overload",
			"ascites", "cardiac ascites",
			"pericardial effusion", "pleural effusion",
			"peripheral edema", "lower extremity edema", "leg edema", "anasarca",
		},
		Procedures: []string{
			"paracentesis", "abdominal paracentesis", "therapeutic paracentesis",
			"thoracentesis", "pleural drainage", "pleural tap",
			"ultrafiltration", "aquapheresis",
			"diuretic infusion", "iv diuretic", "intravenous diuretic",
			"furosemide infusion", "lasix infusion", "bumetanide infusion",
		},
		Patterns: []string{
			`heart\s*fail`,
			`hf\s+exac`,
			`chf\s+exac`,
			`cardiac\s+decomp`,
			`decomp.*heart`,
			`congest.*heart`,
			`pulmon.*edema`,
			`fluid\s+overload`,
			`volume\s+overload`,
		},
		Exclusions: []string{
			// renal
			"kidney", "renal", "aki", "ckd", "nephro", "dialysis", "creatinine", "uremia",
			// hepatic
			"liver", "hepatic", "cirrhosis", "hepato",
			// respiratory
			"copd", "asthma", "pneumonia", "bronchitis", "respiratory failure",
			// metabolic and haemodynamic
			"anemia", "anaemia", "hypokalemia", "hyponatremia", "hyperkalemia",
			"hypotension", "hypertension",
			"sepsis", "cancer", "tumor", "fracture", "stroke", "cva", "fall",
			"cellulitis", "wound", "ulcer", "shoulder",
			"premature ventricular contractions", "pvc",
		},
	}
}
