// Package audio plays short sound cues for game events.
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate = beep.SampleRate(48000)
)

// SoundManager mixes the cue sounds into one speaker stream.
type SoundManager struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
}

// NewSoundManager creates a new sound manager
func NewSoundManager() *SoundManager {
	return &SoundManager{
		mixer: &beep.Mixer{},
	}
}

// Initialize sets up the audio system
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	// Initialize speaker with sample rate and buffer size
	if err := speaker.Init(sampleRate, sampleRate.N(time.Millisecond*100)); err != nil {
		return err
	}

	speaker.Play(sm.mixer)
	sm.initialized = true
	return nil
}

// Cleanup drops queued sounds. The speaker itself stays open.
func (sm *SoundManager) Cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}
	sm.mixer.Clear()
	sm.initialized = false
}

func (sm *SoundManager) play(s beep.Streamer) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}
	speaker.Lock()
	sm.mixer.Add(s)
	speaker.Unlock()
}

// PlayEat plays a short high blip.
func (sm *SoundManager) PlayEat() {
	sm.play(beep.Take(sampleRate.N(time.Millisecond*80), NewToneGenerator(sampleRate, 880, 0.25)))
}

// PlayGameOver plays a long low tone.
func (sm *SoundManager) PlayGameOver() {
	sm.play(beep.Take(sampleRate.N(time.Millisecond*400), NewToneGenerator(sampleRate, 140, 0.3)))
}

// ToneGenerator is a sine tone with a couple of harmonics and a short fade in.
type ToneGenerator struct {
	sr     beep.SampleRate
	freq   float64
	volume float64
	pos    int
}

// NewToneGenerator creates a tone generator
func NewToneGenerator(sr beep.SampleRate, freq, volume float64) *ToneGenerator {
	return &ToneGenerator{
		sr:     sr,
		freq:   freq,
		volume: volume,
	}
}

func (g *ToneGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)

		sample := 0.6 * math.Sin(2*math.Pi*g.freq*t)
		sample += 0.3 * math.Sin(2*math.Pi*g.freq*2*t)
		sample += 0.1 * math.Sin(2*math.Pi*g.freq*3*t)

		envelope := math.Min(t/0.01, 1.0)
		sample *= envelope * g.volume

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *ToneGenerator) Err() error {
	return nil
}
