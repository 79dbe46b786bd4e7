package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// FrameExtractor opens videos through the ffprobe and ffmpeg executables.
type FrameExtractor struct {
	ffmpegPath  string
	ffprobePath string
	frameSize   int
}

func NewFrameExtractor(frameSize int) (*FrameExtractor, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	log.Debugf("Found ffmpeg at %s, ffprobe at %s", ffmpegPath, ffprobePath)

	return &FrameExtractor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		frameSize:   frameSize,
	}, nil
}

func (fe *FrameExtractor) Open(ctx context.Context, path string) (Video, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("video file not accessible: %w", err)
	}

	info, err := fe.probe(ctx, path)
	if err != nil {
		return nil, err
	}
	log.Debugf("Probed %s: %d frames at %.3f fps", path, info.TotalFrames, info.FPS)

	return &ffmpegVideo{extractor: fe, path: path, info: info}, nil
}

func (fe *FrameExtractor) probe(ctx context.Context, path string) (VideoInfo, error) {
	cmd := exec.CommandContext(ctx, fe.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=nb_frames,r_frame_rate,avg_frame_rate,duration:format=duration",
		"-of", "json",
		path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseProbe(stdout.Bytes())
}

type probeOutput struct {
	Streams []struct {
		NbFrames     string `json:"nb_frames"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseProbe(data []byte) (VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return VideoInfo{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return VideoInfo{}, fmt.Errorf("no video stream found")
	}

	stream := out.Streams[0]
	info := VideoInfo{FPS: parseRate(stream.AvgFrameRate)}
	if info.FPS <= 0 {
		info.FPS = parseRate(stream.RFrameRate)
	}

	if n, err := strconv.Atoi(stream.NbFrames); err == nil {
		info.TotalFrames = n
		return info, nil
	}

	duration := parseSeconds(stream.Duration)
	if duration <= 0 {
		duration = parseSeconds(out.Format.Duration)
	}
	if duration > 0 && info.FPS > 0 {
		info.TotalFrames = int(math.Round(duration * info.FPS))
	}
	return info, nil
}

// parseRate reads ffprobe rationals such as "30000/1001".
func parseRate(rate string) float64 {
	num, den, found := strings.Cut(strings.TrimSpace(rate), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

type ffmpegVideo struct {
	extractor *FrameExtractor
	path      string
	info      VideoInfo
}

func (v *ffmpegVideo) Info() VideoInfo {
	return v.info
}

func (v *ffmpegVideo) Frame(ctx context.Context, index int) ([]byte, error) {
	if index < 0 || index >= v.info.TotalFrames {
		return nil, fmt.Errorf("frame %d out of range [0, %d)", index, v.info.TotalFrames)
	}

	timestamp := v.info.Timestamp(index)
	size := v.extractor.frameSize
	args := []string{
		"-v", "error",
		"-ss", fmt.Sprintf("%.6f", timestamp),
		"-i", v.path,
		"-frames:v", "1",
	}
	if size > 0 {
		args = append(args, "-vf",
			fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", size, size))
	}
	args = append(args, "-q:v", "2", "-f", "image2pipe", "-vcodec", "mjpeg", "pipe:1")

	cmd := exec.CommandContext(ctx, v.extractor.ffmpegPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to extract frame %d at %.2fs: %w: %s",
			index, timestamp, err, strings.TrimSpace(stderr.String()))
	}

	data := stdout.Bytes()
	if len(data) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no image for frame %d", index)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to decode frame %d: %w", index, err)
	}

	return data, nil
}

// Close releases nothing today: every frame is decoded by its own ffmpeg process.
func (v *ffmpegVideo) Close() error {
	return nil
}
