package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"tweet-relay/internal/relay"
)

const maxBodyBytes = 1 << 20

// postTweet handles POST /post-tweet. Every request gets exactly one
// PostResult: 400 when there is nothing to post, 500 when the poster fails
// and 200 with the tweet id and link otherwise.
//
// Posts run under base rather than the request context, a caller hanging up
// does not abandon a post already underway. Cancelling base fails the posts
// still in flight.
func (s *Service) postTweet(base context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.handlePostTweet(base, w, r)
	}
}

func (s *Service) handlePostTweet(base context.Context, w http.ResponseWriter, r *http.Request) {
	logger := s.requestLogger(r)
	logger.Info("received request to post tweet")

	req, err := decodePostRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.Error("unable to decode request body", zap.Error(err))
		s.reject(w, relay.ErrInvalidBody)
		return
	}

	if err := s.validate.Struct(req); err != nil {
		logger.Error("no tweet content provided")
		s.reject(w, relay.ErrNoTweetContent)
		return
	}

	logger = logger.With(zap.String("preview", relay.Preview(req.TweetContent)))
	logger.Info("posting tweet")

	ctx := base
	if s.opts.PostTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.PostTimeout)
		defer cancel()
	}

	post, err := s.poster.CreatePost(ctx, req.TweetContent)
	if err != nil {
		logger.Error("error posting tweet", zap.Error(err))
		postsTotal.WithLabelValues(outcomeFailed).Inc()
		respondJSON(w, logger, http.StatusInternalServerError, relay.Failed(err))
		return
	}

	logger.Info("tweet posted successfully", zap.String("tweetId", post.ID))
	postsTotal.WithLabelValues(outcomeSuccess).Inc()
	respondJSON(w, logger, http.StatusOK, relay.Succeeded(post.ID))
}

// decodePostRequest reads a single JSON document. An empty body decodes to
// an empty request, anything after the document is an error.
func decodePostRequest(body io.Reader) (relay.PostRequest, error) {
	var req relay.PostRequest

	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, nil
		}
		return req, err
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return req, errors.New("unexpected data after the request body")
	}

	return req, nil
}

func (s *Service) reject(w http.ResponseWriter, err relay.Error) {
	postsTotal.WithLabelValues(outcomeRejected).Inc()
	respondJSON(w, s.logger, http.StatusBadRequest, relay.Failed(err))
}

// health handles GET /health, it never consults the poster
func (s *Service) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.logger, http.StatusOK, relay.Healthy())
}

func (s *Service) notFound(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.logger, http.StatusNotFound, relay.Failed(relay.ErrNotFound))
}

func (s *Service) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.logger, http.StatusMethodNotAllowed, relay.Failed(relay.ErrMethod))
}

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("unable to encode response", zap.Error(err))
	}
}
