package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/jmbish04/lightbulb-aquarium/internal/completion"
	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
	"github.com/jmbish04/lightbulb-aquarium/internal/observability"
	"github.com/jmbish04/lightbulb-aquarium/internal/store"
)

// ConsultResult is returned once a consultation resolves.
type ConsultResult struct {
	ConsultationID string `json:"consultationId"`
	Response       string `json:"response"`
	Status         string `json:"status"`
}

// Consult runs the error/debug workflow: record the question, analyze
// it through the completion service, and persist the outcome. A failed
// analysis parks the record at unresolved, never deletes it.
func (o *Orchestrator) Consult(ctx context.Context, question, contextText string, notify Notify) (*ConsultResult, error) {
	started := time.Now()

	result, err := o.consult(ctx, question, contextText, notify)
	observability.RecordWorkflow("consult", err == nil, time.Since(started))
	return result, err
}

func (o *Orchestrator) consult(ctx context.Context, question, contextText string, notify Notify) (*ConsultResult, error) {
	if question == "" {
		return nil, fault.New(fault.KindValidation, "question is required")
	}

	id, err := o.store.CreateConsultation(ctx, question, contextText)
	if err != nil {
		return nil, fmt.Errorf("record consultation: %w", err)
	}

	if err := o.store.UpdateConsultation(ctx, id, store.ConsultAnalyzing, ""); err != nil {
		return nil, fmt.Errorf("advance consultation: %w", err)
	}

	o.notify(notify, "analyzing the reported issue")

	var response string
	err = o.callUpstream(ctx, func() error {
		var cerr error
		response, cerr = o.llm.Complete(ctx, consultPrompt(question, contextText), completion.Options{
			System: consultSystemPrompt,
		})
		return cerr
	})
	if err != nil {
		if uerr := o.store.UpdateConsultation(ctx, id, store.ConsultUnresolved, ""); uerr != nil {
			o.logger.Error("failed to mark consultation unresolved", "consultation_id", id, "error", uerr)
		}
		return nil, fmt.Errorf("consultation analysis: %w", err)
	}

	if err := o.store.UpdateConsultation(ctx, id, store.ConsultFixed, response); err != nil {
		return nil, fmt.Errorf("persist consultation response: %w", err)
	}

	o.logger.Info("consultation resolved", "consultation_id", id)
	return &ConsultResult{ConsultationID: id, Response: response, Status: store.ConsultFixed}, nil
}
