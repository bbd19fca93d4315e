package config

// Envfile represents the structure of the envup.yaml specification file.
type Envfile struct {
	Version     string            `yaml:"version"`
	Python      string            `yaml:"python"`
	Venv        string            `yaml:"venv"`
	Manifest    string            `yaml:"manifest"`
	Shell       string            `yaml:"shell"`
	Tools       map[string]string `yaml:"tools"`
	Environment map[string]string `yaml:"environment"`
}
