package pipeline

import (
	"context"
	"fmt"
	"time"
)

// run processes a single job through the Analyzer.
func (o *Orchestrator) run(ctx context.Context, job *Job) {
	log := o.log.With("job_id", job.ID)

	job.SetStatus(StatusRunning, "analyzing")
	start := time.Now()
	rep, outcomes, err := o.analyzer.Analyze(ctx, RunInput{
		Persona: job.Persona,
		Task:    job.Task,
		Sources: job.Sources(),
	})
	o.latency.Observe(time.Since(start))
	if err != nil {
		log.Error("analysis failed", "error", err)
		job.AddError(fmt.Sprintf("analyze: %s", err))
		job.SetStatus(StatusFailed, "analyzing")
		return
	}

	skipped := 0
	for _, oc := range outcomes {
		if oc.Status == OutcomeSkipped {
			skipped++
			job.AddError(fmt.Sprintf("%s: %s", oc.Document, oc.Reason))
		}
	}
	job.Complete(rep, outcomes)
	log.Info("analysis complete",
		"documents", len(outcomes),
		"skipped", skipped,
		"sections", len(rep.ExtractedSections),
		"subsections", len(rep.SubSections),
		"duration_ms", time.Since(start).Milliseconds())
}
