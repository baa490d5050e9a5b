// Package scope provides the mel-scaled spectrum analysis behind the
// instrument's spectrogram view. Samples are pushed from the render
// loop into a ring buffer; windowed FFT frames are reduced through a
// triangular mel filterbank into band powers in dB.
package scope
