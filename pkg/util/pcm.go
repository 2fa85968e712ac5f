package util

// Synthesized speech arrives as raw PCM: mono, 16-bit little-endian samples.
const (
	PCMChannels       = 1
	PCMBytesPerSample = 2
)

// PCMDuration computes the playable duration in seconds of a raw PCM payload
// at the given sample rate. Zero-length or unset payloads yield 0.
func PCMDuration(byteLength int, sampleRate int) float64 {
	if byteLength <= 0 || sampleRate <= 0 {
		return 0
	}
	return float64(byteLength) / PCMBytesPerSample / float64(sampleRate)
}

// PCMSampleCount returns the number of complete 16-bit samples in a payload.
func PCMSampleCount(byteLength int) int {
	if byteLength < PCMBytesPerSample {
		return 0
	}
	return byteLength / PCMBytesPerSample
}
