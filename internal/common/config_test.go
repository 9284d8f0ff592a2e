package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"DB_URL", "PORT", "HTTP_ADDR", "GRPC_ADDR", "OCR_SPACE_API_KEY", "OPENAI_API_KEY", "EXTRACTION_MODE", "OCR_TIMEOUT", "MAX_UPLOAD_BYTES"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "sqlite://expenses.db", cfg.Database.DSN)
	assert.Equal(t, ":5000", cfg.Server.HTTPAddr)
	assert.Empty(t, cfg.Server.GRPCAddr)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 2, cfg.OCR.Engine)
	assert.Equal(t, 30*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.InDelta(t, 0.0, cfg.LLM.Temperature, 0.0001)
	assert.Equal(t, ModeOCRLLM, cfg.Extraction.Mode)
	assert.Equal(t, int64(1<<20), cfg.Extraction.MaxUploadBytes)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("OCR_TIMEOUT", "5s")
	t.Setenv("EXTRACTION_MODE", "VISION")
	t.Setenv("OPENAI_TEMPERATURE", "0.2")

	cfg := LoadConfig()

	assert.Equal(t, ":8081", cfg.Server.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, ModeVision, cfg.Extraction.Mode)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 0.0001)
}

func TestEffectiveMode(t *testing.T) {
	cfg := &Config{Extraction: ExtractionConfig{Mode: ModeOCRLLM}}
	assert.Equal(t, ModeOCRRules, cfg.EffectiveMode())

	cfg.LLM.APIKey = "sk-test"
	assert.Equal(t, ModeOCRLLM, cfg.EffectiveMode())

	cfg.Extraction.Mode = ModeVision
	assert.Equal(t, ModeVision, cfg.EffectiveMode())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database:   DatabaseConfig{DSN: "sqlite://x.db"},
			Server:     ServerConfig{HTTPAddr: ":5000"},
			OCR:        OCRConfig{APIKey: "k"},
			Extraction: ExtractionConfig{Mode: ModeOCRLLM, MaxUploadBytes: 1 << 20},
		}
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.OCR.APIKey = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	cfg = valid()
	cfg.Extraction.Mode = ModeVision
	assert.Error(t, cfg.Validate())
	cfg.LLM.APIKey = "sk"
	cfg.OCR.APIKey = ""
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Extraction.Mode = "telepathy"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Database.DSN = ""
	assert.Error(t, cfg.Validate())
}
