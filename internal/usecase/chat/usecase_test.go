package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/entity"
)

type fakeDocumentRepo struct {
	docs map[string]*entity.Document
}

func (f *fakeDocumentRepo) CreateDocument(ctx context.Context, doc *entity.Document) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocumentRepo) GetDocument(ctx context.Context, documentID string) (*entity.Document, error) {
	doc, ok := f.docs[documentID]
	if !ok {
		return nil, entity.ErrDocumentNotFound
	}
	return doc, nil
}

func (f *fakeDocumentRepo) ListDocuments(ctx context.Context) ([]*entity.Document, error) {
	return nil, nil
}

func (f *fakeDocumentRepo) UpdateDocumentStatus(ctx context.Context, documentID string, status entity.DocumentStatus, totalChunks int, errorMessage *string) error {
	return nil
}

func (f *fakeDocumentRepo) DeleteDocument(ctx context.Context, documentID string) error {
	delete(f.docs, documentID)
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]*entity.ChatSession
	created  int
	touched  []string
}

func (f *fakeSessionRepo) CreateSession(ctx context.Context, documentID, title string) (*entity.ChatSession, error) {
	f.created++
	session := &entity.ChatSession{
		ID:         fmt.Sprintf("session-%d", f.created),
		DocumentID: documentID,
		Title:      title,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeSessionRepo) GetSession(ctx context.Context, sessionID string) (*entity.ChatSession, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessionRepo) ListSessions(ctx context.Context, documentID string) ([]*entity.ChatSession, error) {
	return nil, nil
}

func (f *fakeSessionRepo) UpdateSessionTitle(ctx context.Context, sessionID, title string) (*entity.ChatSession, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	session.Title = title
	return session, nil
}

func (f *fakeSessionRepo) TouchSession(ctx context.Context, sessionID string) error {
	f.touched = append(f.touched, sessionID)
	return nil
}

func (f *fakeSessionRepo) DeleteSession(ctx context.Context, sessionID string) error {
	delete(f.sessions, sessionID)
	return nil
}

type storedMessage struct {
	sessionID string
	role      entity.MessageRole
	content   string
	chunks    []entity.ContextChunk
}

type fakeMessageRepo struct {
	messages []storedMessage
}

func (f *fakeMessageRepo) CreateMessage(ctx context.Context, sessionID string, role entity.MessageRole, content string, contextChunks []entity.ContextChunk) (*entity.ChatMessage, error) {
	f.messages = append(f.messages, storedMessage{sessionID, role, content, contextChunks})
	return &entity.ChatMessage{
		ID:        fmt.Sprintf("msg-%d", len(f.messages)),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	}, nil
}

func (f *fakeMessageRepo) GetSessionMessages(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error) {
	return nil, nil
}

type fakeRetriever struct {
	results []entity.SearchResult
	err     error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query, documentID string, topK int) ([]entity.SearchResult, error) {
	return f.results, f.err
}

type fakeLLM struct {
	answerWords   []string
	failText      string
	title         string
	generateErr   error
	generateCalls int
}

func (f *fakeLLM) GenerateStream(ctx context.Context, prompt string) (<-chan entity.Fragment, error) {
	fragments := make(chan entity.Fragment)
	go func() {
		defer close(fragments)
		for _, word := range f.answerWords {
			fragments <- entity.Fragment{Text: word}
		}
		if f.failText != "" {
			fragments <- entity.Fragment{Text: f.failText, Failed: true}
		}
	}()
	return fragments, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.generateCalls++
	if f.generateErr != nil {
		return "", f.generateErr
	}
	if strings.Contains(prompt, "title") {
		return f.title, nil
	}
	return strings.Join(f.answerWords, ""), nil
}

type collectedEvents struct {
	events []entity.ChatEvent
}

func (c *collectedEvents) emit(event entity.ChatEvent) error {
	c.events = append(c.events, event)
	return nil
}

func (c *collectedEvents) types() []entity.ChatEventType {
	types := make([]entity.ChatEventType, 0, len(c.events))
	for _, event := range c.events {
		types = append(types, event.Type)
	}
	return types
}

func newTestUsecase(results []entity.SearchResult) (*ChatUsecase, *fakeDocumentRepo, *fakeSessionRepo, *fakeMessageRepo, *fakeLLM) {
	docRepo := &fakeDocumentRepo{docs: map[string]*entity.Document{
		"doc-1": {ID: "doc-1", Status: entity.DocumentStatusCompleted},
		"doc-2": {ID: "doc-2", Status: entity.DocumentStatusProcessing},
	}}
	sessionRepo := &fakeSessionRepo{sessions: map[string]*entity.ChatSession{}}
	messageRepo := &fakeMessageRepo{}
	llm := &fakeLLM{
		answerWords: []string{"Cats ", "are ", "mammals."},
		title:       "Questions About Cats",
	}

	uc := NewUsecase(docRepo, sessionRepo, messageRepo, &fakeRetriever{results: results}, llm, 5, zap.NewNop())
	return uc, docRepo, sessionRepo, messageRepo, llm
}

func someResults() []entity.SearchResult {
	return []entity.SearchResult{
		{
			Content: "Cats are mammals.",
			Score:   0.92,
			Metadata: entity.SearchResultMetadata{
				DocumentID:  "doc-1",
				ChunkIndex:  0,
				ChunkLength: 17,
			},
		},
	}
}

func TestStreamAnswerEventOrder(t *testing.T) {
	uc, _, _, _, _ := newTestUsecase(someResults())
	collector := &collectedEvents{}

	err := uc.StreamAnswer(context.Background(), &entity.ChatRequest{
		DocumentID: "doc-1",
		Message:    "Are cats mammals?",
	}, collector.emit)
	require.NoError(t, err)

	types := collector.types()
	assert.Equal(t, []entity.ChatEventType{
		entity.EventStatus,
		entity.EventContext,
		entity.EventSession,
		entity.EventStatus,
		entity.EventAnswerFragment,
		entity.EventAnswerFragment,
		entity.EventAnswerFragment,
		entity.EventAnswer,
		entity.EventComplete,
	}, types)
}

func TestStreamAnswerSessionAlwaysPrecedesFragments(t *testing.T) {
	uc, _, _, _, _ := newTestUsecase(someResults())
	collector := &collectedEvents{}

	err := uc.StreamAnswer(context.Background(), &entity.ChatRequest{
		DocumentID: "doc-1",
		Message:    "Are cats mammals?",
	}, collector.emit)
	require.NoError(t, err)

	sessionIdx, fragmentIdx := -1, -1
	for i, event := range collector.events {
		if event.Type == entity.EventSession && sessionIdx == -1 {
			sessionIdx = i
		}
		if event.Type == entity.EventAnswerFragment && fragmentIdx == -1 {
			fragmentIdx = i
		}
	}

	require.NotEqual(t, -1, sessionIdx)
	require.NotEqual(t, -1, fragmentIdx)
	assert.Less(t, sessionIdx, fragmentIdx)
}

func TestStreamAnswerAssemblesFullAnswer(t *testing.T) {
	uc, _, _, messageRepo, _ := newTestUsecase(someResults())
	collector := &collectedEvents{}

	err := uc.StreamAnswer(context.Background(), &entity.ChatRequest{
		DocumentID: "doc-1",
		Message:    "Are cats mammals?",
	}, collector.emit)
	require.NoError(t, err)

	var answer string
	for _, event := range collector.events {
		if event.Type == entity.EventAnswer {
			answer = event.Content.(string)
		}
	}
	assert.Equal(t, "Cats are mammals.", answer)

	// Both sides of the turn are persisted, context attached to the answer
	require.Len(t, messageRepo.messages, 2)
	assert.Equal(t, entity.MessageRoleUser, messageRepo.messages[0].role)
	assert.Equal(t, "Are cats mammals?", messageRepo.messages[0].content)
	assert.Equal(t, entity.MessageRoleAssistant, messageRepo.messages[1].role)
	assert.Equal(t, "Cats are mammals.", messageRepo.messages[1].content)
	require.Len(t, messageRepo.messages[1].chunks, 1)
	assert.Equal(t, 0.92, messageRepo.messages[1].chunks[0].Score)
}

func TestStreamAnswerNoContextEmitsCannedAnswerOnly(t *testing.T) {
	uc, _, sessionRepo, messageRepo, llm := newTestUsecase(nil)
	collector := &collectedEvents{}

	err := uc.StreamAnswer(context.Background(), &entity.ChatRequest{
		DocumentID: "doc-1",
		Message:    "What about quantum physics?",
	}, collector.emit)
	require.NoError(t, err)

	// The search status and the canned answer, nothing else
	require.Equal(t, []entity.ChatEventType{
		entity.EventStatus,
		entity.EventAnswer,
	}, collector.types())
	assert.Equal(t, noContextAnswer, collector.events[1].Content.(string))

	assert.Equal(t, 0, sessionRepo.created)
	assert.Equal(t, 0, llm.generateCalls)
	assert.Empty(t, messageRepo.messages)
}

func TestStreamAnswerExistingSessionEmitsNoSessionEvent(t *testing.T) {
	uc, _, sessionRepo, _, _ := newTestUsecase(someResults())
	existing, err := sessionRepo.CreateSession(context.Background(), "doc-1", "Existing")
	require.NoError(t, err)

	collector := &collectedEvents{}
	err = uc.StreamAnswer(context.Background(), &entity.ChatRequest{
		DocumentID: "doc-1",
		Message:    "Are cats mammals?",
		SessionID:  &existing.ID,
	}, collector.emit)
	require.NoError(t, err)

	assert.NotContains(t, collector.types(), entity.EventSession)

	last := collector.events[len(collector.events)-1]
	require.Equal(t, entity.EventComplete, last.Type)
	assert.Equal(t, existing.ID, last.Content.(map[string]string)["session_id"])
}

func TestStreamAnswerGenerationFailureDegradesInline(t *testing.T) {
	uc, _, _, messageRepo, llm := newTestUsecase(someResults())
	llm.answerWords = []string{"Cats "}
	llm.failText = "Error generating response: connection reset"

	collector := &collectedEvents{}
	err := uc.StreamAnswer(context.Background(), &entity.ChatRequest{
		DocumentID: "doc-1",
		Message:    "Are cats mammals?",
	}, collector.emit)
	require.NoError(t, err)

	types := collector.types()
	assert.NotContains(t, types, entity.EventError)
	assert.Equal(t, entity.EventComplete, types[len(types)-1])

	var answer string
	for _, event := range collector.events {
		if event.Type == entity.EventAnswer {
			answer = event.Content.(string)
		}
	}
	assert.Equal(t, "Cats Error generating response: connection reset", answer)

	require.Len(t, messageRepo.messages, 2)
	assert.Equal(t, answer, messageRepo.messages[1].content)
}

func TestStreamAnswerEmptyQuestion(t *testing.T) {
	uc, _, _, messageRepo, _ := newTestUsecase(someResults())
	collector := &collectedEvents{}

	err := uc.StreamAnswer(context.Background(), &entity.ChatRequest{
		DocumentID: "doc-1",
		Message:    "   ",
	}, collector.emit)
	assert.ErrorIs(t, err, entity.ErrEmptyQuestion)

	require.Len(t, collector.events, 1)
	assert.Equal(t, entity.EventError, collector.events[0].Type)
	assert.Empty(t, messageRepo.messages)
}

func TestStreamAnswerDocumentNotReady(t *testing.T) {
	uc, _, _, _, _ := newTestUsecase(someResults())
	collector := &collectedEvents{}

	err := uc.StreamAnswer(context.Background(), &entity.ChatRequest{
		DocumentID: "doc-2",
		Message:    "Are cats mammals?",
	}, collector.emit)
	assert.ErrorIs(t, err, entity.ErrDocumentNotReady)

	require.Len(t, collector.events, 1)
	assert.Equal(t, entity.EventError, collector.events[0].Type)
}

func TestStreamAnswerDocumentMissing(t *testing.T) {
	uc, _, _, _, _ := newTestUsecase(someResults())
	collector := &collectedEvents{}

	err := uc.StreamAnswer(context.Background(), &entity.ChatRequest{
		DocumentID: "missing",
		Message:    "Are cats mammals?",
	}, collector.emit)
	assert.ErrorIs(t, err, entity.ErrDocumentNotFound)
}

func TestStreamAnswerCreatesSessionLazily(t *testing.T) {
	uc, _, sessionRepo, _, llm := newTestUsecase(someResults())
	collector := &collectedEvents{}

	err := uc.StreamAnswer(context.Background(), &entity.ChatRequest{
		DocumentID: "doc-1",
		Message:    "Are cats mammals?",
	}, collector.emit)
	require.NoError(t, err)

	assert.Equal(t, 1, sessionRepo.created)
	assert.Equal(t, "Questions About Cats", sessionRepo.sessions["session-1"].Title)
	assert.Equal(t, 1, llm.generateCalls)
}

func TestStreamAnswerReusesExistingSession(t *testing.T) {
	uc, _, sessionRepo, _, llm := newTestUsecase(someResults())
	existing, err := sessionRepo.CreateSession(context.Background(), "doc-1", "Existing")
	require.NoError(t, err)
	sessionRepo.created = 0
	llm.generateCalls = 0

	collector := &collectedEvents{}
	err = uc.StreamAnswer(context.Background(), &entity.ChatRequest{
		DocumentID: "doc-1",
		Message:    "Are cats mammals?",
		SessionID:  &existing.ID,
	}, collector.emit)
	require.NoError(t, err)

	assert.Equal(t, 0, sessionRepo.created)
	assert.Equal(t, 0, llm.generateCalls)
	assert.Equal(t, []string{existing.ID}, sessionRepo.touched)
}

func TestStreamAnswerRejectsSessionFromOtherDocument(t *testing.T) {
	uc, docRepo, sessionRepo, _, _ := newTestUsecase(someResults())
	docRepo.docs["doc-3"] = &entity.Document{ID: "doc-3", Status: entity.DocumentStatusCompleted}
	other, err := sessionRepo.CreateSession(context.Background(), "doc-3", "Other")
	require.NoError(t, err)

	collector := &collectedEvents{}
	err = uc.StreamAnswer(context.Background(), &entity.ChatRequest{
		DocumentID: "doc-1",
		Message:    "Are cats mammals?",
		SessionID:  &other.ID,
	}, collector.emit)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestStreamAnswerCompleteCarriesSessionID(t *testing.T) {
	uc, _, _, _, _ := newTestUsecase(someResults())
	collector := &collectedEvents{}

	err := uc.StreamAnswer(context.Background(), &entity.ChatRequest{
		DocumentID: "doc-1",
		Message:    "Are cats mammals?",
	}, collector.emit)
	require.NoError(t, err)

	last := collector.events[len(collector.events)-1]
	require.Equal(t, entity.EventComplete, last.Type)
	content := last.Content.(map[string]string)
	assert.Equal(t, "session-1", content["session_id"])
}

func TestAskReturnsFullAnswer(t *testing.T) {
	uc, _, _, messageRepo, _ := newTestUsecase(someResults())

	answer, err := uc.Ask(context.Background(), &entity.ChatRequest{
		DocumentID: "doc-1",
		Message:    "Are cats mammals?",
	})
	require.NoError(t, err)

	assert.Equal(t, "Cats are mammals.", answer.Answer)
	assert.Equal(t, "session-1", answer.SessionID)
	require.Len(t, answer.ContextChunks, 1)
	assert.Len(t, messageRepo.messages, 2)
}

func TestAskNoContextCreatesNothing(t *testing.T) {
	uc, _, sessionRepo, messageRepo, _ := newTestUsecase(nil)

	answer, err := uc.Ask(context.Background(), &entity.ChatRequest{
		DocumentID: "doc-1",
		Message:    "What about quantum physics?",
	})
	require.NoError(t, err)

	assert.Equal(t, noContextAnswer, answer.Answer)
	assert.Empty(t, answer.SessionID)
	assert.Empty(t, answer.ContextChunks)
	assert.Equal(t, 0, sessionRepo.created)
	assert.Empty(t, messageRepo.messages)
}

func TestGenerateTitleFallsBack(t *testing.T) {
	uc, _, _, _, llm := newTestUsecase(someResults())
	llm.generateErr = errors.New("model offline")

	title := uc.generateTitle(context.Background(), "Are cats mammals?")
	assert.Equal(t, entity.FallbackSessionTitle, title)
}
