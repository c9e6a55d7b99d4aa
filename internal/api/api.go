package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/jachren-f4/together-reminder-sub003/internal/domain"
	"github.com/jachren-f4/together-reminder-sub003/internal/errors"
	"github.com/jachren-f4/together-reminder-sub003/internal/event"
	"github.com/jachren-f4/together-reminder-sub003/internal/reward"
	"github.com/jachren-f4/together-reminder-sub003/internal/session"
)

type Config struct {
	Router       *gin.Engine
	EventBus     *event.Bus
	Session      *session.Service
	Ledger       *reward.Ledger
	Redis        Redis
	PubsubPrefix string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	ss     *session.Service
	ledger *reward.Ledger

	redis  Redis
	prefix string
}

func New(c Config) *API {
	a := &API{
		ss:     c.Session,
		ledger: c.Ledger,
		redis:  c.Redis,
		prefix: c.PubsubPrefix,
	}

	v1 := c.Router.Group("/v1")
	v1.POST("/sessions", a.createSession)
	v1.GET("/sessions/:id", a.getSession)
	v1.GET("/sessions/:id/peer", a.getPeerSession)
	v1.POST("/sessions/:id/answers", a.submitAnswers)
	v1.POST("/sessions/:id/moves", a.submitMove)
	v1.POST("/sessions/:id/words", a.submitWord)
	v1.GET("/users/:id/balance", a.getBalance)

	c.EventBus.Subscribe(domain.EventNameSessionCompleted, func(ctx context.Context, e event.Event) error {
		return a.PublishSessionCompleted(ctx, e.(domain.EventSessionCompleted))
	})

	return a
}

type createSessionRequest struct {
	Kind      string `json:"kind" binding:"required"`
	Initiator string `json:"initiator" binding:"required"`
	Partner   string `json:"partner" binding:"required"`
}

func (a *API) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	ss, err := a.ss.CreateSession(c.Request.Context(), session.CreateSessionRequest{
		Kind:      domain.Kind(req.Kind),
		Initiator: req.Initiator,
		Partner:   req.Partner,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(201, sessionView(ss, time.Now()))
}

func (a *API) getSession(c *gin.Context) {
	ss, err := a.ss.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(200, sessionView(ss, time.Now()))
}

func (a *API) getPeerSession(c *gin.Context) {
	ss, err := a.ss.PeerSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(200, sessionView(ss, time.Now()))
}

type submitAnswersRequest struct {
	Participant string `json:"participant" binding:"required"`
	Answers     []int  `json:"answers" binding:"required"`
}

func (a *API) submitAnswers(c *gin.Context) {
	var req submitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	ss, err := a.ss.SubmitAnswer(c.Request.Context(), session.SubmitAnswerRequest{
		SessionID:   c.Param("id"),
		Participant: req.Participant,
		Answers:     req.Answers,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(200, sessionView(ss, time.Now()))
}

type submitMoveRequest struct {
	Participant string `json:"participant" binding:"required"`
	CardA       int    `json:"card_a"`
	CardB       int    `json:"card_b"`
}

func (a *API) submitMove(c *gin.Context) {
	var req submitMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	res, err := a.ss.SubmitMove(c.Request.Context(), session.SubmitMoveRequest{
		SessionID:   c.Param("id"),
		Participant: req.Participant,
		CardA:       req.CardA,
		CardB:       req.CardB,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"match_found":    res.MatchFound,
		"game_completed": res.GameCompleted,
		"session":        sessionView(res.Session, time.Now()),
	})
}

type submitWordRequest struct {
	Participant string `json:"participant" binding:"required"`
	Word        string `json:"word" binding:"required"`
}

func (a *API) submitWord(c *gin.Context) {
	var req submitWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	res, err := a.ss.SubmitWord(c.Request.Context(), session.SubmitWordRequest{
		SessionID:   c.Param("id"),
		Participant: req.Participant,
		Word:        req.Word,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"game_completed": res.GameCompleted,
		"session":        sessionView(res.Session, time.Now()),
	})
}

func (a *API) getBalance(c *gin.Context) {
	n, err := a.ledger.Balance(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(200, gin.H{"user": c.Param("id"), "balance": n})
}

func abortWithError(c *gin.Context, err error) {
	e := errors.Convert(err)
	c.AbortWithStatusJSON(e.HTTPStatusCode(), gin.H{
		"code":    e.Code,
		"message": e.Message,
	})
}
