// Package tts synthesizes speech through the Google Cloud Text-to-Speech API.
//
// Client.Synthesize returns the raw MP3 bytes for one chunk of text. Requests
// larger than the API's 5000-byte input limit are rejected before they are
// sent. Connection resets, timeouts, and 5xx/429 answers are tagged
// services.ErrTransient so the caller can retry them; everything else is
// final.
package tts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/texttospeech/v1"

	"tubeharvest/internal/config"
	"tubeharvest/internal/services"
	"tubeharvest/internal/services/googleauth"
)

// MaxInputBytes is the API's per-request text limit.
const MaxInputBytes = 5000

// Voice describes the voice and audio settings for every request.
type Voice struct {
	LanguageCode    string
	Name            string
	Gender          string
	SpeakingRate    float64
	Pitch           float64
	VolumeGainDB    float64
	SampleRateHertz int64
}

// VoiceFromConfig extracts voice settings from the tts section.
func VoiceFromConfig(cfg config.TTS) Voice {
	return Voice{
		LanguageCode:    cfg.LanguageCode,
		Name:            cfg.VoiceName,
		Gender:          strings.ToUpper(strings.TrimSpace(cfg.VoiceGender)),
		SpeakingRate:    cfg.SpeakingRate,
		Pitch:           cfg.Pitch,
		VolumeGainDB:    cfg.VolumeGainDB,
		SampleRateHertz: int64(cfg.SampleRateHertz),
	}
}

// Client wraps the Text-to-Speech REST service.
type Client struct {
	service *texttospeech.Service
	voice   Voice
}

// New builds a client with explicit API options.
func New(ctx context.Context, voice Voice, opts ...option.ClientOption) (*Client, error) {
	svc, err := texttospeech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create text-to-speech service: %w", err)
	}
	if voice.Gender == "" {
		voice.Gender = "NEUTRAL"
	}
	return &Client{service: svc, voice: voice}, nil
}

// NewFromConfig authenticates with the configured service-account key.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	httpClient, err := googleauth.HTTPClient(ctx, cfg.TTS.CredentialsFile, googleauth.ScopeCloudPlatform)
	if err != nil {
		return nil, err
	}
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint := strings.TrimSpace(cfg.TTS.Endpoint); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return New(ctx, VoiceFromConfig(cfg.TTS), opts...)
}

// Synthesize converts text to MP3 audio.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, services.Wrap(services.ErrValidation, "audio", "synthesize", "empty text", nil)
	}
	if len(text) > MaxInputBytes {
		return nil, services.Wrap(services.ErrValidation, "audio", "synthesize", fmt.Sprintf("chunk is %d bytes, limit %d", len(text), MaxInputBytes), nil)
	}
	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: c.voice.LanguageCode,
			Name:         c.voice.Name,
			SsmlGender:   c.voice.Gender,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding:   "MP3",
			SpeakingRate:    c.voice.SpeakingRate,
			Pitch:           c.voice.Pitch,
			VolumeGainDb:    c.voice.VolumeGainDB,
			SampleRateHertz: c.voice.SampleRateHertz,
		},
	}
	resp, err := c.service.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}
	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "audio", "decode audio", "", err)
	}
	if len(audio) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "audio", "synthesize", "empty audio content", nil)
	}
	return audio, nil
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if IsTransient(err) {
		return services.Wrap(services.ErrTransient, "audio", "synthesize", "connection failure", err)
	}
	return services.Wrap(services.ErrExternalTool, "audio", "synthesize", "", err)
}

// IsTransient reports whether err is a connection-level failure worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return false
}
