package llm

import (
	"os"
	"strconv"
	"strings"
)

// TaskType identifies the kind of LLM task being performed.
type TaskType string

const (
	TaskRoutine       TaskType = "routine"
	TaskRoutineStrict TaskType = "routine_strict"
	TaskChat          TaskType = "chat"
	TaskAnalysis      TaskType = "analysis"
)

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// LLMConfig holds all configuration for the LLM subsystem.
type LLMConfig struct {
	Enabled     bool
	LogCalls    bool
	Endpoint    string
	APIKey      string
	Model       string
	VisionModel string
	TimeoutMs   int
	MaxRetries  int
	Tasks       map[TaskType]TaskConfig

	// Client-credentials grant; used instead of APIKey when TokenURL is set.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// DefaultConfig returns an LLMConfig with sensible defaults.
// LLM is disabled by default.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Enabled:     false,
		LogCalls:    false,
		Endpoint:    "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		VisionModel: "gpt-4o",
		TimeoutMs:   30000,
		MaxRetries:  1,
		Tasks: map[TaskType]TaskConfig{
			TaskRoutine:       {Temperature: 0.4, MaxTokens: 2000, TimeoutMs: 45000},
			TaskRoutineStrict: {Temperature: 0.1, MaxTokens: 2000, TimeoutMs: 45000},
			TaskChat:          {Temperature: 0.7, MaxTokens: 800, TimeoutMs: 30000},
			TaskAnalysis:      {Temperature: 0.2, MaxTokens: 1200, TimeoutMs: 60000},
		},
	}
}

// LoadConfig reads LLM configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() LLMConfig {
	cfg := DefaultConfig()

	if v := os.Getenv("DERMALOOP_LLM_ENABLED"); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("DERMALOOP_LLM_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("DERMALOOP_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("DERMALOOP_LLM_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("DERMALOOP_LLM_TOKEN_URL"); v != "" {
		cfg.TokenURL = v
		cfg.ClientID = os.Getenv("DERMALOOP_LLM_CLIENT_ID")
		cfg.ClientSecret = os.Getenv("DERMALOOP_LLM_CLIENT_SECRET")
		if scopes := os.Getenv("DERMALOOP_LLM_SCOPES"); scopes != "" {
			cfg.Scopes = strings.Fields(strings.ReplaceAll(scopes, ",", " "))
		}
	}
	if v := os.Getenv("DERMALOOP_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("DERMALOOP_LLM_VISION_MODEL"); v != "" {
		cfg.VisionModel = v
	}
	if v := os.Getenv("DERMALOOP_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("DERMALOOP_LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}

	applyTaskTimeoutEnv(&cfg, TaskRoutine, "DERMALOOP_LLM_ROUTINE_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskRoutineStrict, "DERMALOOP_LLM_ROUTINE_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskChat, "DERMALOOP_LLM_CHAT_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskAnalysis, "DERMALOOP_LLM_ANALYSIS_TIMEOUT_MS")

	return cfg
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}

// TaskModel returns the model used for a task. Analysis runs on the vision
// model when one is configured.
func (c LLMConfig) TaskModel(task TaskType) string {
	if task == TaskAnalysis && c.VisionModel != "" {
		return c.VisionModel
	}
	return c.Model
}

func applyTaskTimeoutEnv(cfg *LLMConfig, task TaskType, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	tc := cfg.Tasks[task]
	tc.TimeoutMs = n
	cfg.Tasks[task] = tc
}
