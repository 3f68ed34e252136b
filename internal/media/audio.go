package media

import (
	"errors"
	"fmt"
	"unsafe"

	ffmpeg "github.com/linuxmatters/ffmpeg-statigo"
)

// audioDecoder is the real AudioDecoder backed by ffmpeg-statigo.
type audioDecoder struct{}

// NewAudioDecoder returns the audio-decoding capability.
func NewAudioDecoder() AudioDecoder {
	return audioDecoder{}
}

// DecodeAudio decodes the first audio stream into a mono amplitude
// series. Returns ErrNoAudioStream when the artifact carries none.
func (audioDecoder) DecodeAudio(path string) (*Signal, error) {
	var fmtCtx *ffmpeg.AVFormatContext
	pathC := ffmpeg.ToCStr(path)
	defer pathC.Free()

	if _, err := ffmpeg.AVFormatOpenInput(&fmtCtx, pathC, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to open container: %w", err)
	}
	defer ffmpeg.AVFormatCloseInput(&fmtCtx)

	if _, err := ffmpeg.AVFormatFindStreamInfo(fmtCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to read stream info: %w", err)
	}

	streamIdx := -1
	var audioStream *ffmpeg.AVStream
	streams := fmtCtx.Streams()
	for i := 0; i < int(fmtCtx.NbStreams()); i++ {
		stream := streams.Get(uintptr(i))
		if stream.Codecpar().CodecType() == ffmpeg.AVMediaTypeAudio {
			streamIdx = i
			audioStream = stream
			break
		}
	}
	if streamIdx == -1 {
		return nil, ErrNoAudioStream
	}

	codecPar := audioStream.Codecpar()
	decoder := ffmpeg.AVCodecFindDecoder(codecPar.CodecId())
	if decoder == nil {
		return nil, fmt.Errorf("%w: no decoder for codec ID %d", ErrDecoderUnavailable, codecPar.CodecId())
	}

	decCtx := ffmpeg.AVCodecAllocContext3(decoder)
	if decCtx == nil {
		return nil, fmt.Errorf("failed to allocate decoder context")
	}
	defer ffmpeg.AVCodecFreeContext(&decCtx)

	if _, err := ffmpeg.AVCodecParametersToContext(decCtx, codecPar); err != nil {
		return nil, fmt.Errorf("failed to copy codec parameters: %w", err)
	}
	if _, err := ffmpeg.AVCodecOpen2(decCtx, decoder, nil); err != nil {
		return nil, fmt.Errorf("failed to open decoder: %w", err)
	}

	frame := ffmpeg.AVFrameAlloc()
	defer ffmpeg.AVFrameFree(&frame)
	packet := ffmpeg.AVPacketAlloc()
	defer ffmpeg.AVPacketFree(&packet)

	sampleRate := decCtx.SampleRate()
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audio stream reports no sample rate")
	}

	var samples []float64
	for {
		frm, err := readAudioFrame(fmtCtx, decCtx, frame, packet, streamIdx)
		if err != nil {
			return nil, err
		}
		if frm == nil {
			break // EOF
		}
		samples = appendMonoSamples(samples, frm)
	}

	return &Signal{
		Samples:    samples,
		SampleRate: sampleRate,
		Duration:   float64(len(samples)) / float64(sampleRate),
	}, nil
}

// readAudioFrame drives the demux/decode loop and returns the next
// decoded frame, or nil at end of stream.
func readAudioFrame(fmtCtx *ffmpeg.AVFormatContext, decCtx *ffmpeg.AVCodecContext, frame *ffmpeg.AVFrame, packet *ffmpeg.AVPacket, streamIdx int) (*ffmpeg.AVFrame, error) {
	for {
		if _, err := ffmpeg.AVCodecReceiveFrame(decCtx, frame); err == nil {
			return frame, nil
		} else if !errors.Is(err, ffmpeg.EAgain) {
			if errors.Is(err, ffmpeg.AVErrorEOF) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to receive frame: %w", err)
		}

		if _, err := ffmpeg.AVReadFrame(fmtCtx, packet); err != nil {
			if errors.Is(err, ffmpeg.AVErrorEOF) {
				if _, err := ffmpeg.AVCodecSendPacket(decCtx, nil); err != nil {
					return nil, fmt.Errorf("failed to flush decoder: %w", err)
				}
				continue
			}
			return nil, fmt.Errorf("failed to read packet: %w", err)
		}

		if packet.StreamIndex() != streamIdx {
			ffmpeg.AVPacketUnref(packet)
			continue
		}

		if _, err := ffmpeg.AVCodecSendPacket(decCtx, packet); err != nil {
			ffmpeg.AVPacketUnref(packet)
			return nil, fmt.Errorf("failed to send packet: %w", err)
		}
		ffmpeg.AVPacketUnref(packet)
	}
}

// appendMonoSamples converts one decoded frame to normalized mono samples.
// Packed formats are channel-averaged; planar formats use the first plane
// (channel 0), which is representative for quality analysis.
func appendMonoSamples(dst []float64, frame *ffmpeg.AVFrame) []float64 {
	nbSamples := int(frame.NbSamples())
	if nbSamples == 0 {
		return dst
	}
	nbChannels := int(frame.ChLayout().NbChannels())
	if nbChannels <= 0 {
		nbChannels = 1
	}
	dataPtr := frame.Data().Get(0)
	if dataPtr == nil {
		return dst
	}

	switch ffmpeg.AVSampleFormat(frame.Format()) {
	case ffmpeg.AVSampleFmtS16:
		raw := unsafe.Slice((*int16)(dataPtr), nbSamples*nbChannels)
		return appendCollapsed(dst, raw, nbChannels, func(v int16) float64 {
			return float64(v) / 32768.0
		})
	case ffmpeg.AVSampleFmtS16P:
		raw := unsafe.Slice((*int16)(dataPtr), nbSamples)
		return appendCollapsed(dst, raw, 1, func(v int16) float64 {
			return float64(v) / 32768.0
		})
	case ffmpeg.AVSampleFmtFlt:
		raw := unsafe.Slice((*float32)(dataPtr), nbSamples*nbChannels)
		return appendCollapsed(dst, raw, nbChannels, func(v float32) float64 {
			return float64(v)
		})
	case ffmpeg.AVSampleFmtFltp:
		raw := unsafe.Slice((*float32)(dataPtr), nbSamples)
		return appendCollapsed(dst, raw, 1, func(v float32) float64 {
			return float64(v)
		})
	case ffmpeg.AVSampleFmtS32:
		raw := unsafe.Slice((*int32)(dataPtr), nbSamples*nbChannels)
		return appendCollapsed(dst, raw, nbChannels, func(v int32) float64 {
			return float64(v) / 2147483648.0
		})
	case ffmpeg.AVSampleFmtS32P:
		raw := unsafe.Slice((*int32)(dataPtr), nbSamples)
		return appendCollapsed(dst, raw, 1, func(v int32) float64 {
			return float64(v) / 2147483648.0
		})
	default:
		// Unsupported format: contribute silence rather than failing the
		// whole decode, so timing stays intact.
		return append(dst, make([]float64, nbSamples)...)
	}
}

// appendCollapsed averages interleaved channel groups into mono samples.
func appendCollapsed[T int16 | int32 | float32](dst []float64, raw []T, channels int, norm func(T) float64) []float64 {
	if channels == 1 {
		for _, v := range raw {
			dst = append(dst, norm(v))
		}
		return dst
	}
	for i := 0; i+channels <= len(raw); i += channels {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += norm(raw[i+c])
		}
		dst = append(dst, sum/float64(channels))
	}
	return dst
}
