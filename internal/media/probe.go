package media

import (
	"fmt"
	"os"

	ffmpeg "github.com/linuxmatters/ffmpeg-statigo"
)

// prober is the real Prober backed by ffmpeg-statigo demuxing.
type prober struct{}

// NewProber returns the container-probing capability.
func NewProber() Prober {
	return prober{}
}

// Probe opens the artifact, derives timing for the video and audio
// streams independently, and closes the container before returning.
// A missing or unreadable path is the caller's fatal case; an unparsable
// container is reported as an error here and degraded by the caller.
func (prober) Probe(path string) (*StreamInfo, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("artifact not readable: %w", err)
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

	info := &StreamInfo{
		Path:     path,
		Duration: float64(fmtCtx.Duration()) / float64(ffmpeg.AVTimeBase),
	}

	streams := fmtCtx.Streams()
	for i := 0; i < int(fmtCtx.NbStreams()); i++ {
		stream := streams.Get(uintptr(i))
		par := stream.Codecpar()

		switch par.CodecType() {
		case ffmpeg.AVMediaTypeVideo:
			if info.HasVideo {
				continue // first video stream wins
			}
			info.HasVideo = true
			info.VideoDuration = streamDuration(stream, info.Duration)
			info.FrameCount = stream.NbFrames()

			rate := stream.AvgFrameRate()
			if rate != nil && rate.Den() != 0 && rate.Num() != 0 {
				info.FrameRate = float64(rate.Num()) / float64(rate.Den())
			}
			// Prefer the duration implied by frame count when the
			// container records both; it reflects the actual stream end.
			if info.FrameCount > 0 && info.FrameRate > 0 {
				info.VideoDuration = float64(info.FrameCount) / info.FrameRate
			}

		case ffmpeg.AVMediaTypeAudio:
			if info.HasAudio {
				continue
			}
			info.HasAudio = true
			info.AudioDuration = streamDuration(stream, info.Duration)
			info.SampleRate = par.SampleRate()
		}
	}

	return info, nil
}

// streamDuration converts a stream's native duration to seconds, falling
// back to the container duration when the stream does not record one.
func streamDuration(stream *ffmpeg.AVStream, containerDuration float64) float64 {
	dur := stream.Duration()
	if dur <= 0 { // unset durations are 0 or AV_NOPTS_VALUE (negative)
		return containerDuration
	}
	tb := stream.TimeBase()
	if tb == nil || tb.Den() == 0 {
		return containerDuration
	}
	return float64(dur) * float64(tb.Num()) / float64(tb.Den())
}
