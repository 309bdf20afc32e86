// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package convertd

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var (
	audioFormats = []string{".mp3", ".wav", ".ogg", ".flac", ".aac", ".m4a"}
	videoFormats = []string{".mp4", ".avi", ".mkv", ".mov", ".webm"}
)

// MediaConverter transcodes audio and video through an ffmpeg binary.
type MediaConverter struct {
	ffmpeg string
	caps   Capabilities
}

// NewAudioConverter creates a MediaConverter for audio-to-audio transcoding.
func NewAudioConverter(ffmpeg string) *MediaConverter {
	return &MediaConverter{ffmpeg: ffmpeg, caps: NewCapabilities(audioFormats, audioFormats)}
}

// NewVideoConverter creates a MediaConverter for video transcoding and audio
// track extraction.
func NewVideoConverter(ffmpeg string) *MediaConverter {
	outputs := append(append([]string{}, videoFormats...), ".mp3", ".wav")
	return &MediaConverter{ffmpeg: ffmpeg, caps: NewCapabilities(videoFormats, outputs)}
}

// LookupFFmpeg resolves name (a path or a command on PATH) to an executable.
func LookupFFmpeg(name string) (string, error) {
	if name == "" {
		name = "ffmpeg"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("locate ffmpeg: %w", err)
	}
	return path, nil
}

func (c *MediaConverter) Capabilities() Capabilities {
	return c.caps
}

func (c *MediaConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	args := []string{"-nostdin", "-hide_banner", "-loglevel", "error", "-y", "-i", inputPath}
	args = append(args, codecArgs(NormalizeFormat(filepath.Ext(outputPath)))...)
	args = append(args, outputPath)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.ffmpeg, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 512 {
			msg = msg[len(msg)-512:]
		}
		if msg == "" {
			return fmt.Errorf("ffmpeg: %w", err)
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, msg)
	}
	return nil
}

// codecArgs returns ffmpeg arguments specific to the output container.
func codecArgs(out Format) []string {
	switch out {
	case ".mp3":
		return []string{"-vn", "-codec:a", "libmp3lame", "-q:a", "2"}
	case ".wav":
		return []string{"-vn", "-codec:a", "pcm_s16le"}
	case ".ogg":
		return []string{"-vn", "-codec:a", "libvorbis"}
	case ".flac":
		return []string{"-vn", "-codec:a", "flac"}
	case ".aac", ".m4a":
		return []string{"-vn", "-codec:a", "aac"}
	case ".webm":
		return []string{"-codec:v", "libvpx-vp9", "-codec:a", "libopus"}
	}
	return nil
}
