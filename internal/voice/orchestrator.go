package voice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ariavoice/aria/internal/archive"
	"github.com/ariavoice/aria/internal/observability"
	"github.com/ariavoice/aria/internal/persona"
	"github.com/ariavoice/aria/internal/protocol"
	"github.com/ariavoice/aria/internal/session"
)

// Frame is one inbound websocket message from the browser: binary PCM audio
// or a text control frame.
type Frame struct {
	Text   string
	Binary []byte
	IsText bool
}

// SkillResponder answers transcripts that match a built-in skill before the
// LLM sees them.
type SkillResponder interface {
	Respond(ctx context.Context, sessionID, personaID, text string) (string, bool)
}

type OrchestratorConfig struct {
	FallbackText       string
	DefaultModel       string
	TTSFallbackMode    string
	TTSSingleCharLimit int
	TTSChunkCharLimit  int
	TTSChunkDelay      time.Duration
	TTSReceiveTimeout  time.Duration
}

// Orchestrator drives a realtime voice session: audio in, transcripts
// relayed, one assistant turn per finished utterance with streamed text and
// synthesized audio out.
type Orchestrator struct {
	cfg      OrchestratorConfig
	stt      STTProvider
	tts      TTSProvider
	llm      LLMProvider
	skills   SkillResponder
	sessions *session.Manager
	archive  archive.Store
	metrics  *observability.Metrics
	turns    *observability.TurnWindow
}

func NewOrchestrator(
	cfg OrchestratorConfig,
	stt STTProvider,
	tts TTSProvider,
	llm LLMProvider,
	skills SkillResponder,
	sessions *session.Manager,
	store archive.Store,
	metrics *observability.Metrics,
	turns *observability.TurnWindow,
) *Orchestrator {
	if cfg.TTSReceiveTimeout <= 0 {
		cfg.TTSReceiveTimeout = 5 * time.Second
	}
	if cfg.TTSSingleCharLimit <= 0 {
		cfg.TTSSingleCharLimit = 3000
	}
	if cfg.TTSChunkCharLimit <= 0 {
		cfg.TTSChunkCharLimit = 500
	}
	return &Orchestrator{
		cfg:      cfg,
		stt:      stt,
		tts:      tts,
		llm:      llm,
		skills:   skills,
		sessions: sessions,
		archive:  store,
		metrics:  metrics,
		turns:    turns,
	}
}

// TurnWindow exposes the rolling turn latency window.
func (o *Orchestrator) TurnWindow() *observability.TurnWindow { return o.turns }

// Run pumps one websocket connection until the client hangs up or sends the
// end-of-stream marker. Frames carry browser audio toward the transcriber;
// assistant messages flow back through outbound.
func (o *Orchestrator) Run(ctx context.Context, sessionID string, frames <-chan Frame, outbound chan<- any) error {
	o.metrics.ActiveSessions.Inc()
	defer o.metrics.ActiveSessions.Dec()
	o.metrics.SessionEvents.WithLabelValues("connected").Inc()
	defer o.metrics.SessionEvents.WithLabelValues("disconnected").Inc()

	sttSession, events, err := o.stt.StartSession(ctx, sessionID)
	if err != nil {
		o.metrics.ProviderErrors.WithLabelValues("stt", "start_session").Inc()
		o.send(ctx, outbound, protocol.NewError("STT unavailable - check your ASSEMBLYAI_API_KEY"))
		return fmt.Errorf("start stt session: %w", err)
	}

	var turnWG sync.WaitGroup
	defer sttSession.Close()
	defer turnWG.Wait()

	go func() {
		for ev := range events {
			switch ev.Type {
			case STTEventTranscript:
				if strings.TrimSpace(ev.Text) == "" {
					continue
				}
				o.send(ctx, outbound, protocol.NewTranscript(ev.Text, ev.EndOfTurn, ev.EndOfTurn))
				if ev.EndOfTurn && o.sessions.ShouldProcessTranscript(sessionID, ev.Text) {
					turnWG.Add(1)
					go func(text string) {
						defer turnWG.Done()
						o.runTurn(ctx, sessionID, outbound, text)
					}(ev.Text)
				}
			case STTEventError:
				log.Printf("session %s: stt error %s: %s", sessionID, ev.Code, ev.Detail)
				o.metrics.ProviderErrors.WithLabelValues("stt", ev.Code).Inc()
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if frame.IsText {
				if protocol.IsEndOfStream(frame.Text) {
					return nil
				}
				continue
			}
			if err := sttSession.SendAudio(ctx, frame.Binary); err != nil {
				o.metrics.ProviderErrors.WithLabelValues("stt", "send_audio").Inc()
				return fmt.Errorf("forward audio: %w", err)
			}
		}
	}
}

// runTurn answers one finished utterance. Turns are serialized per session
// so overlapping end-of-turn events cannot interleave their replies.
func (o *Orchestrator) runTurn(ctx context.Context, sessionID string, outbound chan<- any, text string) {
	lock := o.sessions.TurnLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	personaID := o.sessions.PersonaID(sessionID)
	p := persona.Get(personaID)

	o.sessions.Append(sessionID, session.RoleUser, text)
	o.archiveTurn(sessionID, session.RoleUser, text, personaID)
	o.send(ctx, outbound, protocol.NewLLMStart())

	var firstText time.Time
	onChunk := func(chunk string) {
		if firstText.IsZero() {
			firstText = time.Now()
			o.turns.Observe(observability.StageFirstText, firstText.Sub(start))
		}
		o.send(ctx, outbound, protocol.NewLLMChunk(chunk))
	}

	full, handled := o.skills.Respond(ctx, sessionID, personaID, text)
	if handled {
		onChunk(full)
	} else {
		prompt := BuildPrompt(p.SystemPrompt, o.sessions.History(sessionID))
		var err error
		full, err = o.llm.Stream(ctx, sessionID, prompt, o.cfg.DefaultModel, onChunk)
		if errors.Is(err, ErrNotConfigured) {
			full = o.cfg.FallbackText
			onChunk(full)
		} else if err != nil {
			log.Printf("session %s: llm stream failed: %v", sessionID, err)
			o.metrics.ProviderErrors.WithLabelValues("llm", "stream").Inc()
			o.turns.ObserveIndicator("llm_error")
			o.send(ctx, outbound, protocol.NewLLMError("Failed to generate response"))
			return
		}
	}

	// The connectivity fallback line is not remembered or spoken; it only
	// tells the user something went wrong upstream.
	if full != o.cfg.FallbackText {
		o.sessions.Append(sessionID, session.RoleAssistant, full)
		o.archiveTurn(sessionID, session.RoleAssistant, full, personaID)
		o.synthesize(ctx, sessionID, outbound, full, p.VoiceID, start)
	}

	o.send(ctx, outbound, protocol.NewLLMComplete(full))
	o.metrics.SessionEvents.WithLabelValues("turn_completed").Inc()
	o.turns.Observe(observability.StageTurnTotal, time.Since(start))
}

func (o *Orchestrator) synthesize(ctx context.Context, sessionID string, outbound chan<- any, text, voiceID string, start time.Time) {
	chunkIndex := 0
	emit := func(audioBase64 string) {
		chunkIndex++
		if chunkIndex == 1 {
			o.metrics.ObserveFirstAudioLatency(time.Since(start))
			o.turns.Observe(observability.StageFirstAudio, time.Since(start))
		}
		o.send(ctx, outbound, protocol.NewTTSAudio(audioBase64, chunkIndex))
	}

	if err := o.streamTTS(ctx, sessionID, text, voiceID, emit); err != nil {
		log.Printf("session %s: tts stream failed, falling back: %v", sessionID, err)
		o.metrics.ProviderErrors.WithLabelValues("tts", "stream").Inc()
		o.turns.ObserveIndicator("tts_fallback")
		o.fallbackTTS(ctx, sessionID, text, voiceID, emit)
	}
}

func (o *Orchestrator) streamTTS(ctx context.Context, sessionID, text, voiceID string, emit func(string)) error {
	stream, err := o.tts.StartStream(ctx, sessionID, voiceID)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.SendText(ctx, text); err != nil {
		return err
	}
	if err := stream.CloseInput(ctx); err != nil {
		return err
	}

	timer := time.NewTimer(o.cfg.TTSReceiveTimeout)
	defer timer.Stop()
	got := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if got {
				// Provider went quiet after delivering audio; treat the
				// turn as finished rather than replaying it via fallback.
				return nil
			}
			return fmt.Errorf("timed out after %s waiting for audio", o.cfg.TTSReceiveTimeout)
		case ev, ok := <-stream.Events():
			if !ok {
				if got {
					return nil
				}
				return fmt.Errorf("tts stream closed without audio")
			}
			switch ev.Type {
			case TTSEventAudio:
				got = true
				emit(ev.AudioBase64)
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(o.cfg.TTSReceiveTimeout)
			case TTSEventFinal:
				if got {
					return nil
				}
				return fmt.Errorf("tts stream finished without audio")
			case TTSEventError:
				return fmt.Errorf("tts error %s: %s", ev.Code, ev.Detail)
			}
		}
	}
}

func (o *Orchestrator) fallbackTTS(ctx context.Context, sessionID, text, voiceID string, emit func(string)) {
	if o.cfg.TTSFallbackMode == "chunked" {
		for i, chunk := range ChunkText(text, o.cfg.TTSChunkCharLimit) {
			if i > 0 && o.cfg.TTSChunkDelay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(o.cfg.TTSChunkDelay):
				}
			}
			audio, err := o.tts.GenerateBase64(ctx, sessionID, chunk, voiceID)
			if err != nil {
				log.Printf("session %s: tts fallback chunk %d failed: %v", sessionID, i+1, err)
				o.metrics.ProviderErrors.WithLabelValues("tts", "fallback").Inc()
				return
			}
			emit(audio)
		}
		return
	}

	audio, err := o.tts.GenerateBase64(ctx, sessionID, Truncate(text, o.cfg.TTSSingleCharLimit), voiceID)
	if err != nil {
		log.Printf("session %s: tts fallback failed: %v", sessionID, err)
		o.metrics.ProviderErrors.WithLabelValues("tts", "fallback").Inc()
		return
	}
	emit(audio)
}

// archiveTurn records the turn without blocking the voice path.
func (o *Orchestrator) archiveTurn(sessionID, role, content, personaID string) {
	if o.archive == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		turn := archive.Turn{SessionID: sessionID, Role: role, Content: content, PersonaID: personaID}
		if err := o.archive.SaveTurn(ctx, turn); err != nil {
			log.Printf("session %s: archive turn: %v", sessionID, err)
		}
	}()
}

func (o *Orchestrator) send(ctx context.Context, outbound chan<- any, msg any) bool {
	select {
	case outbound <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}
