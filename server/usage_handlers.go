package server

import (
	"net/http"

	"github.com/jrsteele09/go-field-analyzer/usage"
)

// usageAggregator resolves the aggregator of the caller's browsing context.
func (s *Server) usageAggregator(r *http.Request) (*usage.Aggregator, error) {
	_, manager, err := s.existingBrowsingContext(r)
	if err != nil {
		return nil, err
	}
	return s.aggregator(manager)
}

func (s *Server) ObjectsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aggregator, err := s.usageAggregator(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		objects, err := aggregator.ListCustomObjects(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, objects)
	}
}

func (s *Server) FieldsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aggregator, err := s.usageAggregator(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		fields, err := aggregator.ListCustomFields(r.Context(), r.PathValue("object"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, fields)
	}
}

// ObjectUsageHandler gathers every custom field of the object. Fields that fail are
// reported as error records inside a 200 response.
func (s *Server) ObjectUsageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aggregator, err := s.usageAggregator(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		records, err := aggregator.GatherAllFieldsUsage(r.Context(), r.PathValue("object"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func (s *Server) FieldUsageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aggregator, err := s.usageAggregator(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		record, err := aggregator.GatherFieldUsage(r.Context(), r.PathValue("object"), r.PathValue("field"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}
