// ABOUTME: Simple linear resampler for converting mono float frames
// ABOUTME: Used by the echo service to turn 16 kHz input into 24 kHz replies
package resample

import "github.com/granthai/vaani-go/pkg/audio"

// Resampler performs linear interpolation between two sample rates.
// It carries the last input sample and the fractional read position across
// calls so consecutive frames join without a click.
type Resampler struct {
	inputRate  int
	outputRate int
	ratio      float64
	position   float64
	last       float32
	primed     bool
}

// New creates a new mono resampler
func New(inputRate, outputRate int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Resample converts one input frame and returns the output frame
func (r *Resampler) Resample(input audio.Frame) audio.Frame {
	if len(input) == 0 {
		return nil
	}
	if r.inputRate == r.outputRate {
		out := make(audio.Frame, len(input))
		copy(out, input)
		return out
	}

	// Virtual input is [last, input...] once primed, so index 0 is the
	// carried sample from the previous call.
	at := func(i int) float32 {
		if !r.primed {
			return input[i]
		}
		if i == 0 {
			return r.last
		}
		return input[i-1]
	}
	frames := len(input)
	if r.primed {
		frames++
	}

	out := make(audio.Frame, 0, r.OutputSamplesNeeded(len(input))+1)
	for {
		idx := int(r.position)
		if idx >= frames-1 {
			break
		}
		frac := float32(r.position - float64(idx))
		out = append(out, at(idx)*(1-frac)+at(idx+1)*frac)
		r.position += r.ratio
	}

	// Rebase position so the final input sample becomes index 0 next time
	r.position -= float64(frames - 1)
	r.last = input[len(input)-1]
	r.primed = true

	return out
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0
	r.last = 0
	r.primed = false
}

// OutputSamplesNeeded estimates how many output samples an input produces
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	return int(float64(inputSamples) / r.ratio)
}

// InputSamplesNeeded estimates how many input samples an output needs
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	return int(float64(outputSamples) * r.ratio)
}
