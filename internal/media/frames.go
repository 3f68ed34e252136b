package media

import (
	"errors"
	"fmt"
	"unsafe"

	ffmpeg "github.com/linuxmatters/ffmpeg-statigo"
)

// frameDecoder is the real FrameDecoder backed by ffmpeg-statigo.
type frameDecoder struct{}

// NewFrameDecoder returns the frame-sampling capability.
func NewFrameDecoder() FrameDecoder {
	return frameDecoder{}
}

// SampleFrames decodes at most n frames uniformly spaced across the
// artifact's duration, first and last anchored to the duration bounds.
// Failures after open are swallowed per-sample: the result may be
// shorter than n, and an artifact without video yields an empty result.
func (frameDecoder) SampleFrames(path string, n int) ([]Frame, error) {
	if n <= 0 {
		return nil, nil
	}

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
	var videoStream *ffmpeg.AVStream
	streams := fmtCtx.Streams()
	for i := 0; i < int(fmtCtx.NbStreams()); i++ {
		stream := streams.Get(uintptr(i))
		if stream.Codecpar().CodecType() == ffmpeg.AVMediaTypeVideo {
			streamIdx = i
			videoStream = stream
			break
		}
	}
	if streamIdx == -1 {
		return nil, ErrNoVideoStream
	}

	codecPar := videoStream.Codecpar()
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

	duration := float64(fmtCtx.Duration()) / float64(ffmpeg.AVTimeBase)
	if duration <= 0 {
		duration = streamDuration(videoStream, 0)
	}

	frame := ffmpeg.AVFrameAlloc()
	defer ffmpeg.AVFrameFree(&frame)
	packet := ffmpeg.AVPacketAlloc()
	defer ffmpeg.AVPacketFree(&packet)

	var sampled []Frame
	for _, ts := range SampleTimestamps(duration, n) {
		// Seek in the default AV_TIME_BASE, keyframe at or before ts.
		seekTarget := int64(ts * float64(ffmpeg.AVTimeBase))
		if _, err := ffmpeg.AVSeekFrame(fmtCtx, -1, seekTarget, ffmpeg.AVSeekFlagBackward); err != nil {
			continue
		}
		ffmpeg.AVCodecFlushBuffers(decCtx)

		decoded, err := readVideoFrame(fmtCtx, decCtx, frame, packet, streamIdx)
		if err != nil || decoded == nil {
			continue
		}
		if out, ok := copyFrame(decoded, ts); ok {
			sampled = append(sampled, out)
		}
		ffmpeg.AVFrameUnref(decoded)
	}

	return sampled, nil
}

// readVideoFrame returns the next decoded video frame after a seek, or
// nil at end of stream.
func readVideoFrame(fmtCtx *ffmpeg.AVFormatContext, decCtx *ffmpeg.AVCodecContext, frame *ffmpeg.AVFrame, packet *ffmpeg.AVPacket, streamIdx int) (*ffmpeg.AVFrame, error) {
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

// copyFrame snapshots a decoded frame's planes into Go-owned memory so
// the AVFrame can be recycled. Chroma planes are copied only for 4:2:0
// planar frames; other formats contribute luma alone.
func copyFrame(frame *ffmpeg.AVFrame, ts float64) (Frame, bool) {
	w := int(frame.Width())
	h := int(frame.Height())
	if w <= 0 || h <= 0 {
		return Frame{}, false
	}

	y := copyPlane(frame.Data().Get(0), int(frame.Linesize().Get(0)), w, h)
	if y == nil {
		return Frame{}, false
	}

	out := Frame{
		Timestamp: ts,
		Width:     w,
		Height:    h,
		Y:         y,
	}

	if ffmpeg.AVPixelFormat(frame.Format()) == ffmpeg.AVPixFmtYuv420P {
		cw, ch := (w+1)/2, (h+1)/2
		out.U = copyPlane(frame.Data().Get(1), int(frame.Linesize().Get(1)), cw, ch)
		out.V = copyPlane(frame.Data().Get(2), int(frame.Linesize().Get(2)), cw, ch)
		if out.U != nil && out.V != nil {
			out.ChromaW, out.ChromaH = cw, ch
		} else {
			out.U, out.V = nil, nil
		}
	}

	return out, true
}

// copyPlane copies a width×height plane out of stride-padded frame data.
func copyPlane(ptr unsafe.Pointer, stride, width, height int) []byte {
	if ptr == nil || stride < width || width <= 0 || height <= 0 {
		return nil
	}
	src := unsafe.Slice((*byte)(ptr), stride*height)
	dst := make([]byte, width*height)
	for row := 0; row < height; row++ {
		copy(dst[row*width:(row+1)*width], src[row*stride:row*stride+width])
	}
	return dst
}
