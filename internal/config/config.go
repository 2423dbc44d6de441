// Package config loads FindIt's process configuration from the environment,
// following the teacher's env/envInt/envFloat helper convention.
package config

import (
	"os"
	"runtime"
	"strconv"
)

// Config holds every tunable the indexer, search engine, and CLI need.
type Config struct {
	DataDir        string // application-support dir holding the Global DB
	FFmpegPath     string
	FFprobePath    string
	FpcalcPath     string
	WhisperPath    string // speech-to-text CLI (whisper.cpp-compatible)
	RedPath        string // RED R3D decoder tool, if installed
	BrawPath       string // Blackmagic RAW decoder tool, if installed

	IndexWorkers    int     // bounded per-file worker pool size
	IndexSkipLayers []string
	VLMRateLimitRPS float64 // global token-bucket for layer-3 VLM calls
	VLMMaxAttempts  int
	VLMBackoffInit  float64 // seconds
	VLMBackoffCap   float64 // seconds

	CoalesceWindowMS int // watcher event-batch window, default 1500ms

	ClipImageModelPath string // ONNX CLIP image encoder
	ClipTextModelPath  string // ONNX CLIP text encoder
	ClipTokenizerPath  string // CLIP tokenizer.json
	GemmaModelPath     string // ONNX EmbeddingGemma text encoder
	GemmaTokenizerPath string // EmbeddingGemma tokenizer.json
	GeminiAPIKey    string
	GeminiAPIURL    string
	OpenRouterKey   string
	OpenRouterURL   string
	EmbeddingCacheSize int

	ANNConnectivity int // HNSW connectivity, default 16

	RedisAddr string // asynq broker
}

// Load reads configuration from the environment, applying the same
// fallback defaults the teacher's config package uses.
func Load() *Config {
	return &Config{
		DataDir:        env("FINDIT_DATA_DIR", defaultDataDir()),
		FFmpegPath:     env("FINDIT_FFMPEG_PATH", "ffmpeg"),
		FFprobePath:    env("FINDIT_FFPROBE_PATH", "ffprobe"),
		FpcalcPath:     env("FINDIT_FPCALC_PATH", "fpcalc"),
		WhisperPath:    env("FINDIT_WHISPER_PATH", "whisper-cli"),
		RedPath:        env("FINDIT_RED_DECODER_PATH", ""),
		BrawPath:       env("FINDIT_BRAW_DECODER_PATH", ""),

		IndexWorkers:    envInt("FINDIT_INDEX_WORKERS", defaultWorkers()),
		VLMRateLimitRPS: envFloat("FINDIT_VLM_RPS", 1.0),
		VLMMaxAttempts:  envInt("FINDIT_VLM_MAX_ATTEMPTS", 6),
		VLMBackoffInit:  envFloat("FINDIT_VLM_BACKOFF_INIT_S", 1.0),
		VLMBackoffCap:   envFloat("FINDIT_VLM_BACKOFF_CAP_S", 60.0),

		CoalesceWindowMS: envInt("FINDIT_WATCH_COALESCE_MS", 1500),

		ClipImageModelPath: env("FINDIT_CLIP_IMAGE_MODEL_PATH", ""),
		ClipTextModelPath:  env("FINDIT_CLIP_TEXT_MODEL_PATH", ""),
		ClipTokenizerPath:  env("FINDIT_CLIP_TOKENIZER_PATH", ""),
		GemmaModelPath:     env("FINDIT_GEMMA_MODEL_PATH", ""),
		GemmaTokenizerPath: env("FINDIT_GEMMA_TOKENIZER_PATH", ""),
		GeminiAPIKey:       env("FINDIT_GEMINI_API_KEY", ""),
		GeminiAPIURL:       env("FINDIT_GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenRouterKey:      env("FINDIT_OPENROUTER_API_KEY", ""),
		OpenRouterURL:      env("FINDIT_OPENROUTER_API_URL", "https://openrouter.ai/api/v1"),
		EmbeddingCacheSize: envInt("FINDIT_EMBEDDING_CACHE_SIZE", 512),

		ANNConnectivity: envInt("FINDIT_ANN_CONNECTIVITY", 16),

		RedisAddr: env("FINDIT_REDIS_ADDR", "127.0.0.1:6379"),
	}
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n > 4 {
		return 4
	}
	if n < 1 {
		return 1
	}
	return n
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return dir + "/findit"
	}
	return "./.findit"
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
