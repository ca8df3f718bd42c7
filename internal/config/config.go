package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Extractor   ExtractorConfig   `yaml:"extractor"`
	Repairer    RepairerConfig    `yaml:"repairer"`
	Scorer      ScorerConfig      `yaml:"scorer"`
	Triton      TritonConfig      `yaml:"triton"`
	HuggingFace HuggingFaceConfig `yaml:"huggingface"`
	Gemini      GeminiConfig      `yaml:"gemini"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type ExtractorConfig struct {
	InputDir     string `yaml:"input_dir"`
	Extension    string `yaml:"extension"`
	Marker       string `yaml:"marker"`
	OutputFile   string `yaml:"output_file"`
	ManifestFile string `yaml:"manifest_file"`
}

type RepairerConfig struct {
	InputFile        string   `yaml:"input_file"`
	OutputSuffix     string   `yaml:"output_suffix"`
	RemoveSubstrings []string `yaml:"remove_substrings"`
	AssumeYes        bool     `yaml:"assume_yes"`
}

type ScorerConfig struct {
	InputFile         string            `yaml:"input_file"`
	OutputFile        string            `yaml:"output_file"`
	TextColumn        string            `yaml:"text_column"`
	IDColumn          string            `yaml:"id_column"`
	RequiredColumns   []string          `yaml:"required_columns"`
	BatchSize         int               `yaml:"batch_size"`
	Backend           string            `yaml:"backend"`
	Device            string            `yaml:"device"`
	ReleaseEveryBatch *bool             `yaml:"release_every_batch"`
	Resume            *bool             `yaml:"resume"`
	Dimensions        []DimensionConfig `yaml:"dimensions"`
}

// DimensionConfig describes one scoring dimension and the model behind it.
type DimensionConfig struct {
	Name        string `yaml:"name"`
	ModelID     string `yaml:"model_id"`
	Column      string `yaml:"column"`
	TritonModel string `yaml:"triton_model"`
}

type TritonConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	ManageModels      *bool         `yaml:"manage_models"`
	InputIDsName      string        `yaml:"input_ids_name"`
	AttentionMaskName string        `yaml:"attention_mask_name"`
	OutputName        string        `yaml:"output_name"`
	PadID             int           `yaml:"pad_id"`
	CFAccessClientID  string        `yaml:"cf_access_client_id"`
	CFAccessSecret    string        `yaml:"cf_access_client_secret"`
}

type HuggingFaceConfig struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
	CacheDir string `yaml:"cache_dir"`
	Revision string `yaml:"revision"`
}

type GeminiConfig struct {
	Model   string   `yaml:"model"`
	APIKeys []string `yaml:"api_keys"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

const (
	BackendTriton = "triton"
	BackendGemini = "gemini"

	DeviceAuto = "auto"
	DeviceCUDA = "cuda"
	DeviceCPU  = "cpu"
)

// DefaultDimensions are the internal/external detail models scored by default.
func DefaultDimensions() []DimensionConfig {
	var dims []DimensionConfig
	for _, name := range []string{"internal", "external"} {
		dims = append(dims, DimensionConfig{
			Name:    name,
			ModelID: "jonasklus/automated-ai-scoring-" + name,
			Column:  name + "_details",
		})
	}
	return dims
}

func (c *Config) Validate() error {
	if c.Extractor.InputDir == "" {
		c.Extractor.InputDir = "Transcripts"
	}
	if c.Extractor.Extension == "" {
		c.Extractor.Extension = ".docx"
	}
	if c.Extractor.Marker == "" {
		c.Extractor.Marker = "Free Recall"
	}
	if c.Extractor.OutputFile == "" {
		c.Extractor.OutputFile = "memories.csv"
	}
	if c.Extractor.ManifestFile == "" {
		c.Extractor.ManifestFile = "memories_manifest.csv"
	}

	if c.Repairer.InputFile == "" {
		c.Repairer.InputFile = c.Extractor.OutputFile
	}
	if c.Repairer.OutputSuffix == "" {
		c.Repairer.OutputSuffix = "_cleaned"
	}
	if c.Repairer.RemoveSubstrings == nil {
		c.Repairer.RemoveSubstrings = []string{"Ä¶"}
	}

	if err := c.validateScorer(); err != nil {
		return err
	}

	if c.Triton.BaseURL == "" {
		c.Triton.BaseURL = "http://localhost:8000"
	}
	c.Triton.BaseURL = strings.TrimRight(c.Triton.BaseURL, "/")
	if c.Triton.Timeout == 0 {
		c.Triton.Timeout = 60 * time.Second
	}
	if c.Triton.ManageModels == nil {
		c.Triton.ManageModels = boolPtr(true)
	}
	if c.Triton.InputIDsName == "" {
		c.Triton.InputIDsName = "input_ids"
	}
	if c.Triton.AttentionMaskName == "" {
		c.Triton.AttentionMaskName = "attention_mask"
	}
	if c.Triton.OutputName == "" {
		c.Triton.OutputName = "logits"
	}

	if c.HuggingFace.Endpoint == "" {
		c.HuggingFace.Endpoint = "https://huggingface.co"
	}
	c.HuggingFace.Endpoint = strings.TrimRight(c.HuggingFace.Endpoint, "/")
	if c.HuggingFace.CacheDir == "" {
		c.HuggingFace.CacheDir = ".cache/tokenizers"
	}
	if c.HuggingFace.Revision == "" {
		c.HuggingFace.Revision = "main"
	}

	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Scorer.Backend == BackendGemini && len(c.Gemini.APIKeys) == 0 {
		return fmt.Errorf("gemini.api_keys is required for the gemini backend")
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}

func (c *Config) validateScorer() error {
	s := &c.Scorer
	if s.InputFile == "" {
		s.InputFile = "narratives.csv"
	}
	if s.OutputFile == "" {
		s.OutputFile = "narratives_output.csv"
	}
	if s.TextColumn == "" {
		s.TextColumn = "text"
	}
	if s.IDColumn == "" {
		s.IDColumn = "ParticipantID"
	}
	if s.BatchSize < 0 {
		return fmt.Errorf("scorer.batch_size must be positive, got %d", s.BatchSize)
	}
	if s.BatchSize == 0 {
		s.BatchSize = 8
	}
	if s.Backend == "" {
		s.Backend = BackendTriton
	}
	if s.Backend != BackendTriton && s.Backend != BackendGemini {
		return fmt.Errorf("scorer.backend %q is not supported", s.Backend)
	}
	if s.Device == "" {
		s.Device = DeviceAuto
	}
	switch s.Device {
	case DeviceAuto, DeviceCUDA, DeviceCPU:
	default:
		return fmt.Errorf("scorer.device %q is not supported", s.Device)
	}
	if s.ReleaseEveryBatch == nil {
		s.ReleaseEveryBatch = boolPtr(true)
	}
	if s.Resume == nil {
		s.Resume = boolPtr(true)
	}
	if len(s.Dimensions) == 0 {
		s.Dimensions = DefaultDimensions()
	}

	seen := make(map[string]bool)
	for i := range s.Dimensions {
		d := &s.Dimensions[i]
		if d.Name == "" {
			return fmt.Errorf("scorer.dimensions[%d].name is required", i)
		}
		if seen[d.Name] {
			return fmt.Errorf("scorer.dimensions: duplicate dimension %q", d.Name)
		}
		seen[d.Name] = true
		if d.ModelID == "" {
			return fmt.Errorf("scorer.dimensions[%d].model_id is required", i)
		}
		if d.Column == "" {
			d.Column = d.Name + "_details"
		}
		if d.TritonModel == "" {
			d.TritonModel = TritonModelName(d.ModelID)
		}
	}

	return nil
}

// TritonModelName maps a hub model id to a model repository name.
// "jonasklus/automated-ai-scoring-internal" -> "automated-ai-scoring-internal".
func TritonModelName(modelID string) string {
	if i := strings.LastIndex(modelID, "/"); i >= 0 {
		return modelID[i+1:]
	}
	return modelID
}

// ReleaseAfterBatch reports whether transient buffers are released after each batch.
func (s ScorerConfig) ReleaseAfterBatch() bool {
	return s.ReleaseEveryBatch == nil || *s.ReleaseEveryBatch
}

// ResumesFromOutput reports whether finished scores in an existing output
// file are carried over onto matching input rows.
func (s ScorerConfig) ResumesFromOutput() bool {
	return s.Resume == nil || *s.Resume
}

// ManagesModels reports whether the scorer loads and unloads models explicitly.
func (t TritonConfig) ManagesModels() bool {
	return t.ManageModels == nil || *t.ManageModels
}

func boolPtr(b bool) *bool { return &b }
