package data

// Schema names the columns the loaders look for in the metadata and
// annotation files.
type Schema struct {
	Sample string `yaml:"sample"`
	Event  string `yaml:"event"`
	Time   string `yaml:"time"`
	Probe  string `yaml:"probe"`
	Symbol string `yaml:"symbol"`
}

// DefaultSchema matches the NKI breast cancer phenotype table.
func DefaultSchema() Schema {
	return Schema{
		Sample: "samplename",
		Event:  "e.dmfs",
		Time:   "t.dmfs",
		Probe:  "probe",
		Symbol: "symbol",
	}
}
