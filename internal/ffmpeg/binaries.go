package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

const (
	envFFmpegPath  = "HIYORI_FFMPEG_PATH"
	envFFprobePath = "HIYORI_FFPROBE_PATH"
)

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

// Resolve finds the ffmpeg and ffprobe binaries. Each one is taken from the
// configured path, then the environment, then PATH.
func Resolve(ffmpegPath, ffprobePath string) (BinaryPaths, error) {
	var err error
	paths := BinaryPaths{}

	paths.FFmpeg, err = locate("ffmpeg", ffmpegPath, os.Getenv(envFFmpegPath))
	if err != nil {
		return BinaryPaths{}, err
	}
	paths.FFprobe, err = locate("ffprobe", ffprobePath, os.Getenv(envFFprobePath))
	if err != nil {
		return BinaryPaths{}, err
	}
	return paths, nil
}

func locate(name string, candidates ...string) (string, error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if !fileExists(c) {
			return "", fmt.Errorf("%s not found at %s", name, c)
		}
		return c, nil
	}

	found, err := exec.LookPath(name + executableSuffix())
	if err != nil {
		return "", fmt.Errorf(
			"%s not found in PATH; install it or set %s: %w",
			name, envFor(name), err,
		)
	}
	return found, nil
}

func envFor(name string) string {
	if name == "ffprobe" {
		return envFFprobePath
	}
	return envFFmpegPath
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
