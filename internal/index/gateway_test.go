package index

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/sync/errgroup"

	"github.com/dharsanguruparan/RagDrop/internal/apperr"
	"github.com/dharsanguruparan/RagDrop/internal/gemini"
)

type fakeRemote struct {
	mu       sync.Mutex
	stores   []gemini.Store
	creates  atomic.Int32
	lists    atomic.Int32
	uploaded []byte

	uploadOp  gemini.Operation
	uploadErr error
	// ops are returned by successive GetOperation calls; the last repeats.
	ops   []gemini.Operation
	polls atomic.Int32

	answer   string
	genErr   error
	genModel string
	genStore []string

	deleted []string
}

func (f *fakeRemote) ListStores(ctx context.Context) ([]gemini.Store, error) {
	f.lists.Add(1)
	time.Sleep(5 * time.Millisecond)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gemini.Store(nil), f.stores...), nil
}

func (f *fakeRemote) CreateStore(ctx context.Context, displayName string) (gemini.Store, error) {
	f.creates.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	s := gemini.Store{Name: "fileSearchStores/created", DisplayName: displayName}
	f.stores = append(f.stores, s)
	return s, nil
}

func (f *fakeRemote) UploadToStore(ctx context.Context, store string, r io.Reader, size int64, displayName, mimeType string) (gemini.Operation, error) {
	if f.uploadErr != nil {
		return gemini.Operation{}, f.uploadErr
	}
	data, err := io.ReadAll(io.LimitReader(r, size))
	if err != nil {
		return gemini.Operation{}, err
	}
	f.mu.Lock()
	f.uploaded = data
	f.mu.Unlock()
	return f.uploadOp, nil
}

func (f *fakeRemote) GetOperation(ctx context.Context, name string) (gemini.Operation, error) {
	n := int(f.polls.Add(1)) - 1
	if len(f.ops) == 0 {
		return gemini.Operation{Name: name}, nil
	}
	if n >= len(f.ops) {
		n = len(f.ops) - 1
	}
	return f.ops[n], nil
}

func (f *fakeRemote) GenerateContent(ctx context.Context, model string, stores []string, prompt string) (string, error) {
	f.genModel = model
	f.genStore = stores
	return f.answer, f.genErr
}

func (f *fakeRemote) DeleteDocument(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, name)
	return nil
}

type fakeModel struct {
	text   string
	err    error
	prompt string
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if tp, ok := messages[0].Parts[0].(llms.TextContent); ok {
			m.prompt = tp.Text
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.text}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func newGateway(remote *fakeRemote, m llms.Model) *Gateway {
	return New(remote, m, Config{
		Model:            "gemini-2.5-pro",
		StoreDisplayName: "servless-rag-store",
		PollInterval:     time.Millisecond,
		ImportTimeout:    time.Second,
	}, nil)
}

func TestResolveStoreConcurrentCreatesOnce(t *testing.T) {
	remote := &fakeRemote{}
	g := newGateway(remote, nil)

	var eg errgroup.Group
	names := make([]string, 16)
	for i := range names {
		eg.Go(func() error {
			name, err := g.ResolveStore(context.Background())
			names[i] = name
			return err
		})
	}
	require.NoError(t, eg.Wait())
	for _, n := range names {
		assert.Equal(t, "fileSearchStores/created", n)
	}
	assert.EqualValues(t, 1, remote.creates.Load())

	again, err := g.ResolveStore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fileSearchStores/created", again)
	assert.EqualValues(t, 1, remote.lists.Load())
}

func TestResolveStoreReusesExisting(t *testing.T) {
	remote := &fakeRemote{stores: []gemini.Store{
		{Name: "fileSearchStores/other", DisplayName: "other"},
		{Name: "fileSearchStores/mine", DisplayName: "servless-rag-store"},
	}}
	g := newGateway(remote, nil)

	name, err := g.ResolveStore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fileSearchStores/mine", name)
	assert.Zero(t, remote.creates.Load())
}

func TestResolveStorePreProvisioned(t *testing.T) {
	remote := &fakeRemote{}
	g := New(remote, nil, Config{StoreName: "fileSearchStores/fixed"}, nil)

	name, err := g.ResolveStore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fileSearchStores/fixed", name)
	assert.Zero(t, remote.lists.Load())
}

func TestImportFilePollsUntilDone(t *testing.T) {
	remote := &fakeRemote{
		stores:   []gemini.Store{{Name: "fileSearchStores/s", DisplayName: "servless-rag-store"}},
		uploadOp: gemini.Operation{Name: "fileSearchStores/s/upload/operations/op1"},
	}
	remote.ops = []gemini.Operation{
		{Name: "fileSearchStores/s/upload/operations/op1"},
		{Name: "fileSearchStores/s/upload/operations/op1", Done: true},
	}
	require.NoError(t, decodeOp(`{"name":"fileSearchStores/s/upload/operations/op1","done":true,"response":{"documentName":"fileSearchStores/s/documents/d1"}}`, &remote.ops[1]))
	g := newGateway(remote, nil)

	res, err := g.ImportFile(context.Background(), stringsReader("hello"), 5, "notes.txt", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "fileSearchStores/s", res.StoreName)
	assert.Equal(t, "fileSearchStores/s/upload/operations/op1", res.OperationName)
	require.NotNil(t, res.DocumentName)
	assert.Equal(t, "fileSearchStores/s/documents/d1", *res.DocumentName)
	assert.EqualValues(t, 2, remote.polls.Load())
	assert.Equal(t, "hello", string(remote.uploaded))
}

func TestImportFileWithoutDocumentNameIsSoftSuccess(t *testing.T) {
	remote := &fakeRemote{
		stores:   []gemini.Store{{Name: "fileSearchStores/s", DisplayName: "servless-rag-store"}},
		uploadOp: gemini.Operation{Name: "op1", Done: true},
	}
	g := newGateway(remote, nil)

	res, err := g.ImportFile(context.Background(), stringsReader("x"), 1, "a.txt", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "fileSearchStores/s", res.StoreName)
	assert.Nil(t, res.DocumentName)
	assert.Zero(t, remote.polls.Load())
}

func TestImportFileOperationError(t *testing.T) {
	remote := &fakeRemote{
		stores:   []gemini.Store{{Name: "fileSearchStores/s", DisplayName: "servless-rag-store"}},
		uploadOp: gemini.Operation{Name: "op1"},
		ops:      []gemini.Operation{{Name: "op1", Done: true, Error: &gemini.OperationError{Code: 3, Message: "unsupported file"}}},
	}
	g := newGateway(remote, nil)

	_, err := g.ImportFile(context.Background(), stringsReader("x"), 1, "a.txt", "text/plain")
	require.Error(t, err)
	assert.Equal(t, apperr.IndexFailed, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "unsupported file")
}

func TestImportFileUploadError(t *testing.T) {
	remote := &fakeRemote{
		stores:    []gemini.Store{{Name: "fileSearchStores/s", DisplayName: "servless-rag-store"}},
		uploadErr: errors.New("connection reset"),
	}
	g := newGateway(remote, nil)

	_, err := g.ImportFile(context.Background(), stringsReader("x"), 1, "a.txt", "text/plain")
	assert.Equal(t, apperr.IndexFailed, apperr.KindOf(err))
}

func TestImportFileTimesOut(t *testing.T) {
	remote := &fakeRemote{
		stores:   []gemini.Store{{Name: "fileSearchStores/s", DisplayName: "servless-rag-store"}},
		uploadOp: gemini.Operation{Name: "op1"},
	}
	g := New(remote, nil, Config{
		StoreDisplayName: "servless-rag-store",
		PollInterval:     time.Millisecond,
		ImportTimeout:    20 * time.Millisecond,
	}, nil)

	_, err := g.ImportFile(context.Background(), stringsReader("x"), 1, "a.txt", "text/plain")
	require.Error(t, err)
	assert.Equal(t, apperr.IndexFailed, apperr.KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestImportFileCallerCancellation(t *testing.T) {
	remote := &fakeRemote{
		stores:   []gemini.Store{{Name: "fileSearchStores/s", DisplayName: "servless-rag-store"}},
		uploadOp: gemini.Operation{Name: "op1"},
	}
	g := newGateway(remote, nil)
	_, err := g.ResolveStore(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for remote.polls.Load() < 2 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()
	_, err = g.ImportFile(ctx, stringsReader("x"), 1, "a.txt", "text/plain")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotEqual(t, apperr.IndexFailed, apperr.KindOf(err))
}

func TestChat(t *testing.T) {
	remote := &fakeRemote{answer: "The report covers Q3."}
	g := newGateway(remote, nil)

	got, err := g.Chat(context.Background(), "fileSearchStores/s", "what is this?")
	require.NoError(t, err)
	assert.Equal(t, "The report covers Q3.", got)
	assert.Equal(t, []string{"fileSearchStores/s"}, remote.genStore)
	assert.Equal(t, "gemini-2.5-pro", remote.genModel)
}

func TestChatErrors(t *testing.T) {
	g := newGateway(&fakeRemote{genErr: errors.New("boom")}, nil)
	_, err := g.Chat(context.Background(), "s", "hi")
	assert.Equal(t, apperr.GenerationFailed, apperr.KindOf(err))

	g = newGateway(&fakeRemote{answer: "  "}, nil)
	_, err = g.Chat(context.Background(), "s", "hi")
	assert.Equal(t, apperr.EmptyResponse, apperr.KindOf(err))
}

func TestDeleteDocument(t *testing.T) {
	remote := &fakeRemote{}
	g := newGateway(remote, nil)
	require.NoError(t, g.DeleteDocument(context.Background(), "fileSearchStores/s/documents/d"))
	assert.Equal(t, []string{"fileSearchStores/s/documents/d"}, remote.deleted)
}
