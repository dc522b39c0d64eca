package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/NMBawiskar/ros-data-publisher/pipeline"
)

// handleStream serves one topic as a Server-Sent Event stream. A new
// producer and pipeline are created per subscriber and torn down when
// the client disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	s.touch()

	topic, ok := s.lookupTopic(r)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Topic not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, err := s.openStream(r.Context(), topic.Name, topic.Type)
	if err != nil {
		s.logger.Error("stream setup failed", "topic", topic.Name, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to start stream")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if s.core != nil {
		s.core.RecordClientConnected(s.name, "sse", 1)
		defer s.core.RecordClientConnected(s.name, "sse", -1)
	}
	s.logger.Info("sse client subscribed", "topic", topic.Name, "remote", r.RemoteAddr)

	// The pipeline closes the channel when the client context is
	// cancelled or the producer fails terminally.
	for ev := range events {
		payload, marshalErr := json.Marshal(ev)
		if marshalErr != nil {
			continue
		}
		n, writeErr := fmt.Fprintf(w, "data: %s\n\n", payload)
		if writeErr != nil {
			break
		}
		flusher.Flush()

		s.eventsSent.Add(1)
		s.bytesSent.Add(uint64(n))
		if s.core != nil {
			s.core.RecordEventDelivered(s.name, "sse")
		}
	}
	s.logger.Info("sse client gone", "topic", topic.Name, "remote", r.RemoteAddr)
}

// openStream builds the per-subscriber producer and pipeline. The
// caller consumes the returned channel; teardown is driven by
// cancelling ctx.
func (s *Server) openStream(ctx context.Context, topicName, msgType string) (<-chan pipeline.Event, error) {
	source, err := s.factory.NewSource(topicName, msgType)
	if err != nil {
		return nil, err
	}

	p, err := pipeline.New(pipeline.Config{
		Topic:         topicName,
		ReadTimeout:   s.config.ReadTimeout,
		CycleInterval: s.config.CycleInterval,
	}, pipeline.Deps{
		Source:  source,
		Logger:  s.logger,
		Metrics: s.streamMetrics,
	})
	if err != nil {
		_ = source.Close()
		return nil, err
	}
	return p.Events(ctx), nil
}
