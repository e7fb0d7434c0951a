package processors

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/BaSui01/voicerag/pipeline"
	"github.com/BaSui01/voicerag/speech"
)

// fakeSpeech 记录 SetVoice 调用的语音服务替身。
type fakeSpeech struct {
	voice    string
	setCalls []string
	failNext bool
}

func (f *fakeSpeech) Synthesize(ctx context.Context, req *speech.TTSRequest) (*speech.TTSResponse, error) {
	return &speech.TTSResponse{CharCount: len([]rune(req.Text))}, nil
}

func (f *fakeSpeech) SetVoice(ctx context.Context, voiceID string) error {
	if f.failNext {
		f.failNext = false
		return errors.New("reconfiguration rejected")
	}
	f.setCalls = append(f.setCalls, voiceID)
	f.voice = voiceID
	return nil
}

func (f *fakeSpeech) Voice() string { return f.voice }
func (f *fakeSpeech) Name() string  { return "fake" }

func newTestSwitcher(svc speech.Service) *VoiceSwitcher {
	return NewVoiceSwitcher(svc, VoiceSwitcherConfig{
		Voices:          map[string]string{"en": "v1", "hi": "v2"},
		DefaultLanguage: "en",
		DefaultVoice:    "v1",
	}, zap.NewNop())
}

func final(text, lang string) *pipeline.TranscriptionFrame {
	return &pipeline.TranscriptionFrame{Text: text, Language: lang}
}

func TestVoiceSwitcher_LanguageChangeScenario(t *testing.T) {
	svc := &fakeSpeech{voice: "v1"}
	s := newTestSwitcher(svc)
	ctx := context.Background()

	// en-US：目标语音等于当前默认语音，无重配
	if err := s.ProcessFrame(ctx, final("Hello", "en-US"), pipeline.Downstream); err != nil {
		t.Fatal(err)
	}
	// hi-IN：切到 v2，恰好一次重配
	if err := s.ProcessFrame(ctx, final("नमस्ते", "hi-IN"), pipeline.Downstream); err != nil {
		t.Fatal(err)
	}

	if len(svc.setCalls) != 1 || svc.setCalls[0] != "v2" {
		t.Fatalf("expected exactly one reconfiguration to v2, got %v", svc.setCalls)
	}
	if s.CurrentLanguage() != "hi" {
		t.Errorf("current language = %q, want hi", s.CurrentLanguage())
	}
	if s.CurrentVoice() != "v2" {
		t.Errorf("current voice = %q, want v2", s.CurrentVoice())
	}
}

func TestVoiceSwitcher_Idempotence(t *testing.T) {
	svc := &fakeSpeech{voice: "v1"}
	s := newTestSwitcher(svc)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.ProcessFrame(ctx, final("फिर से", "hi-IN"), pipeline.Downstream); err != nil {
			t.Fatal(err)
		}
	}

	if len(svc.setCalls) != 1 {
		t.Errorf("repeated identical detections fired %d reconfigurations, want 1", len(svc.setCalls))
	}
}

func TestVoiceSwitcher_InterimSuppression(t *testing.T) {
	svc := &fakeSpeech{voice: "v1"}
	s := newTestSwitcher(svc)
	ctx := context.Background()

	interim := &pipeline.InterimTranscriptionFrame{Text: "नम", Language: "hi-IN"}
	if err := s.ProcessFrame(ctx, interim, pipeline.Downstream); err != nil {
		t.Fatal(err)
	}

	if len(svc.setCalls) != 0 {
		t.Errorf("interim frame triggered %d reconfigurations, want 0", len(svc.setCalls))
	}
	if s.CurrentLanguage() != "en" {
		t.Errorf("interim frame mutated state: language = %q", s.CurrentLanguage())
	}
}

func TestVoiceSwitcher_RevertToDefaultOnMissingLanguage(t *testing.T) {
	svc := &fakeSpeech{voice: "v1"}
	s := newTestSwitcher(svc)
	ctx := context.Background()

	if err := s.ProcessFrame(ctx, final("नमस्ते", "hi-IN"), pipeline.Downstream); err != nil {
		t.Fatal(err)
	}
	// 定稿帧缺失语言：从非默认状态回退默认
	if err := s.ProcessFrame(ctx, final("something", ""), pipeline.Downstream); err != nil {
		t.Fatal(err)
	}

	if s.CurrentLanguage() != "en" {
		t.Errorf("current language = %q, want en after revert", s.CurrentLanguage())
	}
	if got := svc.setCalls; len(got) != 2 || got[1] != "v1" {
		t.Errorf("expected reconfigurations [v2 v1], got %v", got)
	}
}

func TestVoiceSwitcher_UnmappedLanguageFallsBackToDefaultVoice(t *testing.T) {
	svc := &fakeSpeech{voice: "v1"}
	s := newTestSwitcher(svc)
	ctx := context.Background()

	if err := s.ProcessFrame(ctx, final("bonjour", "fr-FR"), pipeline.Downstream); err != nil {
		t.Fatal(err)
	}

	// fr 无映射 → 默认语音，而默认语音已是当前语音 → 无重配
	if len(svc.setCalls) != 0 {
		t.Errorf("unexpected reconfigurations: %v", svc.setCalls)
	}
	if s.CurrentLanguage() != "fr" {
		t.Errorf("current language = %q, want fr", s.CurrentLanguage())
	}
	if s.CurrentVoice() != "v1" {
		t.Errorf("current voice = %q, want default v1", s.CurrentVoice())
	}
}

func TestVoiceSwitcher_FailedReconfigLeavesStateUnchanged(t *testing.T) {
	svc := &fakeSpeech{voice: "v1", failNext: true}
	s := newTestSwitcher(svc)
	ctx := context.Background()

	if err := s.ProcessFrame(ctx, final("नमस्ते", "hi-IN"), pipeline.Downstream); err != nil {
		t.Fatal(err)
	}

	if s.CurrentLanguage() != "en" || s.CurrentVoice() != "v1" {
		t.Errorf("failed reconfiguration mutated state: lang=%q voice=%q",
			s.CurrentLanguage(), s.CurrentVoice())
	}

	// 下一次语言变化重试成功
	if err := s.ProcessFrame(ctx, final("फिर", "hi-IN"), pipeline.Downstream); err != nil {
		t.Fatal(err)
	}
	if s.CurrentVoice() != "v2" {
		t.Errorf("retry did not reconfigure, voice = %q", s.CurrentVoice())
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := []struct{ in, want string }{
		{"en-US", "en"},
		{"hi-IN", "hi"},
		{"EN", "en"},
		{"ta", "ta"},
		{"", ""},
		{"  ", ""},
	}
	for _, c := range cases {
		if got := normalizeLanguage(c.in); got != c.want {
			t.Errorf("normalizeLanguage(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
