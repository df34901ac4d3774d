package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"quickedit/internal/analysis"
	"quickedit/internal/apply"
	"quickedit/internal/cache"
	"quickedit/internal/directives"
	"quickedit/internal/events"
	"quickedit/internal/llm/client"
	"quickedit/internal/models"
	"quickedit/internal/preview"
	"quickedit/internal/relevance"
	"quickedit/internal/suggest"
)

// ErrInvalidRequest is returned before any phase runs when a required request
// field is missing.
var ErrInvalidRequest = errors.New("invalid edit request")

const noModificationsMessage = "No modifications generated"

// EditGenerator produces edit directives for a request.
type EditGenerator interface {
	Generate(ctx context.Context, req client.Request) (*client.Generation, error)
}

// EditServiceOptions wires the collaborators of an EditService. Memory and
// Cache are optional.
type EditServiceOptions struct {
	Analyzer  *analysis.Analyzer
	Generator EditGenerator
	Memory    MemoryService
	Cache     *cache.ResultCache
	Engine    *apply.Engine
	Weights   *relevance.Weights
	Log       logrus.FieldLogger
}

// EditService runs the incremental modification pipeline. Concurrent calls
// share only the result cache and the session memory store.
type EditService struct {
	analyzer  *analysis.Analyzer
	generator EditGenerator
	memory    MemoryService
	cache     *cache.ResultCache
	engine    *apply.Engine
	weights   relevance.Weights
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewEditService(opts EditServiceOptions) *EditService {
	s := &EditService{
		analyzer:  opts.Analyzer,
		generator: opts.Generator,
		memory:    opts.Memory,
		cache:     opts.Cache,
		engine:    opts.Engine,
		weights:   relevance.DefaultWeights(),
		log:       opts.Log,
		now:       time.Now,
	}
	if s.analyzer == nil {
		s.analyzer = analysis.MustNewAnalyzer(analysis.DefaultHeuristics())
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.engine == nil {
		s.engine = apply.NewEngine(s.log)
	}
	if opts.Weights != nil {
		s.weights = *opts.Weights
	}
	return s
}

// ValidateRequest checks the fields every request must carry.
func ValidateRequest(req models.EditRequest) error {
	var missing []string
	if strings.TrimSpace(req.Message) == "" {
		missing = append(missing, "message")
	}
	if len(req.ProjectFiles) == 0 {
		missing = append(missing, "projectFiles")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		missing = append(missing, "sessionId")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

// pipelineRun carries the state of one Process call.
type pipelineRun struct {
	s       *EditService
	ctx     context.Context
	req     models.EditRequest
	emitter *events.Emitter
	log     logrus.FieldLogger
	started time.Time
}

func (r *pipelineRun) emit(evt events.Event) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if err := r.emitter.Emit(r.ctx, evt); err != nil {
		return fmt.Errorf("event stream closed: %w", err)
	}
	return nil
}

func (r *pipelineRun) phase(name string, status events.Status, message string, data any) error {
	return r.emit(events.NewPhase(name, status, message, data))
}

// fail reports an upstream failure. The stream ends without a complete event.
func (r *pipelineRun) fail(phase, message string, err error) error {
	r.log.WithField("phase", phase).WithError(err).Error(message)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if emitErr := r.emit(events.NewError(message, err.Error())); emitErr != nil {
		r.log.WithError(emitErr).Debug("could not deliver error event")
	}
	return err
}

func (r *pipelineRun) finish(result *models.EditResult) (*models.EditResult, error) {
	result.DurationMs = r.s.now().Sub(r.started).Milliseconds()
	if result.Message != "" {
		if err := r.emit(events.NewMessage(events.MessageCompletion, result.Message)); err != nil {
			return nil, err
		}
	}
	if err := r.emit(events.NewComplete(result)); err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{
		"success":  result.Success,
		"applied":  len(result.Modifications),
		"errors":   len(result.Errors),
		"duration": result.DurationMs,
		"cached":   result.Cached,
	}).Info("edit request finished")
	return result, nil
}

// Process runs every phase for req, streaming events to sink. It returns the
// same result carried by the complete event. Input validation failures return
// ErrInvalidRequest without emitting anything; upstream failures emit an error
// event and return the error; cancellation returns the context error.
func (s *EditService) Process(ctx context.Context, req models.EditRequest, sink events.Sink) (*models.EditResult, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if s.generator == nil {
		return nil, errors.New("edit service has no generator configured")
	}

	ctx = events.WithSession(ctx, req.SessionID)
	run := &pipelineRun{
		s:       s,
		ctx:     ctx,
		req:     req,
		emitter: events.NewEmitter(sink, s.log),
		started: s.now(),
		log: s.log.WithFields(logrus.Fields{
			"session": req.SessionID,
			"request": uuid.NewString(),
		}),
	}

	// Analysis
	if err := run.phase(events.PhaseAnalysis, events.StatusStarting, "Analyzing request", nil); err != nil {
		return nil, err
	}
	res := s.analyzer.Analyze(req.Message, req.ProjectFiles, req.ConversationHistory)
	run.log = run.log.WithField("tier", res.Complexity)
	if err := run.phase(events.PhaseAnalysis, events.StatusComplete,
		fmt.Sprintf("Classified as %s (%s)", res.Complexity, res.Intent), res.Summary()); err != nil {
		return nil, err
	}
	if err := run.emit(events.NewMessage(events.MessageIntentPreview, intentPreview(res))); err != nil {
		return nil, err
	}

	// Cache
	var cacheKey string
	if s.cache != nil && res.Complexity.IsQuick() {
		involved := res.MentionedFile
		if len(involved) == 0 {
			involved = sortedKeys(req.ProjectFiles)
		}
		cacheKey = cache.Key(req.Message, req.ProjectFiles, involved)
		if hit, ok := s.cache.Get(cacheKey); ok {
			run.log.Debug("result cache hit")
			if err := run.emit(events.NewMessage(events.MessageCompletion, hit.Message)); err != nil {
				return nil, err
			}
			if err := run.emit(events.NewComplete(hit)); err != nil {
				return nil, err
			}
			return hit, nil
		}
	}

	// Memory
	memory := req.Memory
	if memory == nil && s.memory != nil {
		loaded, err := s.memory.Load(ctx, req.SessionID)
		if err != nil {
			return nil, run.fail(events.PhaseContext, "Failed to load session memory", err)
		}
		memory = loaded
	}

	// Context
	if err := run.phase(events.PhaseContext, events.StatusStarting, "Selecting relevant files", nil); err != nil {
		return nil, err
	}
	graph := relevance.BuildGraph(req.ProjectFiles)
	scores := relevance.Focus(relevance.Score(req.Message, graph, s.weights), req.FocusFiles, s.weights)
	selected := relevance.Select(graph, scores, res.Complexity)
	optimized := relevance.Optimize(req.ProjectFiles, selected, res.Complexity)
	run.log.WithFields(logrus.Fields{
		"selected":  len(selected),
		"truncated": len(optimized.Truncated),
		"lines":     optimized.OptimizedLines,
	}).Debug("context optimized")
	if err := run.phase(events.PhaseContext, events.StatusComplete,
		fmt.Sprintf("Using %d of %d files", len(selected), len(req.ProjectFiles)),
		map[string]any{
			"files":          selected,
			"truncated":      optimized.Truncated,
			"totalLines":     optimized.TotalLines,
			"optimizedLines": optimized.OptimizedLines,
		}); err != nil {
		return nil, err
	}

	// Generation
	if err := run.phase(events.PhaseGeneration, events.StatusStarting, "Generating modifications", nil); err != nil {
		return nil, err
	}
	gen, err := s.generator.Generate(ctx, client.Request{
		Message: req.Message,
		Tier:    res.Complexity,
		Files:   optimized.Files,
		Memory:  memory,
		History: req.ConversationHistory,
	})
	if err != nil {
		return nil, run.fail(events.PhaseGeneration, "Generation failed", err)
	}
	if err := run.emit(events.NewTokens(gen.Usage)); err != nil {
		return nil, err
	}

	result := &models.EditResult{
		Message:      noModificationsMessage,
		UpdatedFiles: copyFileMap(req.ProjectFiles),
		Tokens:       gen.Usage,
		Analysis:     res.Summary(),
	}
	if gen.ParseErr != nil {
		run.log.WithError(gen.ParseErr).Warn("generation produced no usable output")
		if err := run.phase(events.PhaseGeneration, events.StatusComplete, "Could not read the generated modifications", nil); err != nil {
			return nil, err
		}
		result.Errors = []string{gen.ParseErr.Error()}
		if err := run.emit(events.NewError(noModificationsMessage, gen.ParseErr.Error())); err != nil {
			return nil, err
		}
		return run.finish(result)
	}
	parsed := gen.Response
	result.Intent = parsed.Intent
	result.Summary = parsed.Summary
	if err := run.phase(events.PhaseGeneration, events.StatusComplete,
		fmt.Sprintf("Generated %d modifications", len(parsed.Modifications)),
		map[string]any{"model": gen.Profile.APIName, "strategy": parsed.Strategy, "estimatedTokens": gen.Estimated}); err != nil {
		return nil, err
	}
	if parsed.Intent != "" {
		if err := run.emit(events.NewMessage(events.MessageIntent, parsed.Intent)); err != nil {
			return nil, err
		}
	}

	// Validation
	if err := run.phase(events.PhaseValidation, events.StatusStarting, "Validating modifications", nil); err != nil {
		return nil, err
	}
	decoded, decodeErrs := directives.DecodeAll(parsed.Modifications)
	for _, e := range decodeErrs {
		result.Errors = append(result.Errors, e.Error())
	}
	fixed := directives.AutoFix(decoded, req.ProjectFiles)
	for _, issue := range fixed.Dropped {
		run.log.WithFields(logrus.Fields{
			"phase":     events.PhaseValidation,
			"file":      issue.Directive.File(),
			"directive": directives.Encode(issue.Directive),
		}).Warn("dropping invalid directive: " + issue.Message)
		result.Errors = append(result.Errors, "dropped "+issue.String())
	}
	result.Warnings = append(result.Warnings, fixed.Fixed...)
	for _, w := range directives.Validate(fixed.Directives, req.ProjectFiles).Warnings {
		result.Warnings = append(result.Warnings, w.String())
	}
	if err := run.phase(events.PhaseValidation, events.StatusComplete,
		fmt.Sprintf("%d valid, %d fixed, %d dropped", len(fixed.Directives), len(fixed.Fixed), len(fixed.Dropped)+len(decodeErrs)),
		nil); err != nil {
		return nil, err
	}
	if len(fixed.Directives) == 0 {
		detail := "response contained no usable modifications"
		if len(result.Errors) > 0 {
			detail = strings.Join(result.Errors, "; ")
		}
		if err := run.emit(events.NewError(noModificationsMessage, detail)); err != nil {
			return nil, err
		}
		return run.finish(result)
	}

	// Application
	if err := run.phase(events.PhaseApplication, events.StatusStarting, "Applying modifications", nil); err != nil {
		return nil, err
	}
	applied := s.engine.ApplyAll(req.ProjectFiles, fixed.Directives)
	result.Errors = append(result.Errors, applied.Errors()...)
	result.UpdatedFiles = applied.Files
	result.Modifications = directives.EncodeAll(applied.Applied)
	result.AffectedFiles = describeAffected(applied, req.ProjectFiles)
	result.Success = len(applied.Applied) > 0
	if err := run.phase(events.PhaseApplication, events.StatusComplete,
		fmt.Sprintf("Applied %d of %d modifications", len(applied.Applied), len(fixed.Directives)),
		map[string]any{"files": affectedPaths(result.AffectedFiles), "errors": len(applied.Failures)}); err != nil {
		return nil, err
	}

	// Preview and suggestions
	if result.Success {
		if err := s.review(run, applied, result); err != nil {
			return nil, err
		}
	}

	result.Message = completionMessage(result, len(fixed.Directives))

	if result.Success && s.memory != nil {
		changes := make([]models.RecentChange, 0, len(result.AffectedFiles))
		for _, f := range result.AffectedFiles {
			changes = append(changes, models.RecentChange{
				File:        f.Path,
				Description: f.Description,
				Request:     req.Message,
				Complexity:  string(res.Complexity),
				Revision:    req.Revision,
			})
		}
		if _, err := s.memory.Record(ctx, req.SessionID, changes); err != nil {
			return nil, run.fail(events.PhaseApplication, "Failed to save session memory", err)
		}
	}

	if cacheKey != "" && result.Success && len(result.Errors) == 0 {
		s.cache.Put(cacheKey, result)
	}
	return run.finish(result)
}

// review builds previews and suggestions concurrently. A failed emit in one
// branch stops the other before its completion event.
func (s *EditService) review(run *pipelineRun, applied apply.Result, result *models.EditResult) error {
	g, ctx := errgroup.WithContext(run.ctx)
	g.Go(func() error {
		if err := run.phase(events.PhasePreview, events.StatusStarting, "Building previews", nil); err != nil {
			return err
		}
		result.Previews = preview.BuildPreviews(run.req.ProjectFiles, applied.Files, applied.Applied)
		if err := ctx.Err(); err != nil {
			return err
		}
		return run.phase(events.PhasePreview, events.StatusComplete,
			fmt.Sprintf("%d file previews", len(result.Previews)), nil)
	})
	g.Go(func() error {
		if err := run.phase(events.PhaseSuggestions, events.StatusStarting, "Looking for follow-up improvements", nil); err != nil {
			return err
		}
		result.Suggestions = suggest.Generate(applied.Applied, applied.Files)
		if err := ctx.Err(); err != nil {
			return err
		}
		return run.phase(events.PhaseSuggestions, events.StatusComplete,
			fmt.Sprintf("%d suggestions", len(result.Suggestions)), nil)
	})
	return g.Wait()
}

func intentPreview(res analysis.Result) string {
	if res.Complexity.IsQuick() {
		return fmt.Sprintf("Quick %s edit: updating only what is needed.", res.Complexity)
	}
	return fmt.Sprintf("%s change: working through the affected files.", strings.ToUpper(string(res.Complexity[:1]))+string(res.Complexity[1:]))
}

func completionMessage(result *models.EditResult, attempted int) string {
	if !result.Success {
		return noModificationsMessage
	}
	msg := fmt.Sprintf("Applied %d of %d modifications to %d files", len(result.Modifications), attempted, len(result.AffectedFiles))
	if result.Summary != "" {
		msg = result.Summary + ". " + msg
	}
	return msg + "."
}

func describeAffected(applied apply.Result, before map[string]string) []models.AffectedFile {
	byFile := make(map[string][]string)
	for _, d := range applied.Applied {
		byFile[d.File()] = append(byFile[d.File()], directives.Describe(d))
	}
	changed := applied.Changed(before)
	sort.Strings(changed)
	out := make([]models.AffectedFile, 0, len(changed))
	for _, p := range changed {
		out = append(out, models.AffectedFile{Path: p, Description: strings.Join(byFile[p], "; ")})
	}
	return out
}

func affectedPaths(files []models.AffectedFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyFileMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// AnalysisReport is the model-free part of the pipeline: classification,
// relevance ranking and the context that would be sent.
type AnalysisReport struct {
	Analysis       models.AnalysisSummary `json:"analysis"`
	Ranking        []RankedFile           `json:"ranking"`
	Selected       []string               `json:"selected"`
	Truncated      []string               `json:"truncated,omitempty"`
	TotalLines     int                    `json:"totalLines"`
	OptimizedLines int                    `json:"optimizedLines"`
}

// RankedFile is one entry of the relevance ranking.
type RankedFile struct {
	Path       string   `json:"path"`
	Score      float64  `json:"score"`
	Importance int      `json:"importance"`
	Reasons    []string `json:"reasons,omitempty"`
}

// Analyze runs analysis and context selection without calling the model.
func (s *EditService) Analyze(message string, files map[string]string, history []models.ConversationTurn) AnalysisReport {
	res := s.analyzer.Analyze(message, files, history)
	graph := relevance.BuildGraph(files)
	scores := relevance.Score(message, graph, s.weights)
	selected := relevance.Select(graph, scores, res.Complexity)
	optimized := relevance.Optimize(files, selected, res.Complexity)

	report := AnalysisReport{
		Analysis:       res.Summary(),
		Selected:       selected,
		Truncated:      optimized.Truncated,
		TotalLines:     optimized.TotalLines,
		OptimizedLines: optimized.OptimizedLines,
	}
	for _, sc := range scores {
		if sc.Score <= 0 {
			continue
		}
		report.Ranking = append(report.Ranking, RankedFile{
			Path:       sc.Path,
			Score:      sc.Score,
			Importance: graph.Importance(sc.Path),
			Reasons:    sc.Reasons,
		})
	}
	return report
}
