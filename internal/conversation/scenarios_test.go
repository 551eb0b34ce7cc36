package conversation_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"ragchat/internal/answer"
	"ragchat/internal/conversation"
	"ragchat/internal/render"
	"ragchat/internal/storage"
)

var _ = Describe("Question and answer exchange", func() {
	var (
		srv     *httptest.Server
		handler http.HandlerFunc
		kv      *storage.BoltStore
		store   *conversation.Store
		dbPath  string
	)

	BeforeEach(func() {
		handler = nil
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
		DeferCleanup(srv.Close)

		dbPath = filepath.Join(GinkgoT().TempDir(), "history.db")
		var err error
		kv, err = storage.OpenBolt(dbPath)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = kv.Close() })

		store = conversation.New(answer.NewClient(srv.URL, 0), kv)
		Expect(store.Initialize()).To(Succeed())
	})

	respond := func(status int, body string) {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}
	}

	It("renders the answer with its citation", func() {
		respond(http.StatusOK, `{"answer":"Refunds within 30 days.","sources":[{"source":"policy.md","page":2,"score":0.91}]}`)

		Expect(store.Submit(context.Background(), "What is the refund policy?")).To(BeTrue())

		items := render.Messages(store.Snapshot())
		Expect(items).To(HaveLen(2))
		Expect(items[0].Role).To(Equal(conversation.RoleUser))
		Expect(items[0].Text).To(Equal("What is the refund policy?"))
		Expect(items[1].Text).To(Equal("Refunds within 30 days."))
		Expect(items[1].Citations).To(Equal([]render.CitationLine{{Summary: "policy.md, page 2 • score 0.91"}}))
	})

	It("replaces the placeholder with a failure notice when the service errors", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		Expect(store.Submit(context.Background(), "ping")).To(BeTrue())

		st := store.Snapshot()
		Expect(st.Busy).To(BeFalse())
		Expect(st.LastError).To(Equal("HTTP 503: Service Unavailable"))
		items := render.Messages(st)
		Expect(items).To(HaveLen(2))
		Expect(items[1].Text).To(Equal(conversation.FailureNotice))
		Expect(items[1].Citations).To(BeEmpty())
	})

	It("falls back to a placeholder answer when none is returned", func() {
		respond(http.StatusOK, `{"answer":null,"sources":[]}`)

		store.Submit(context.Background(), "anything?")

		items := render.Messages(store.Snapshot())
		Expect(items[1].Text).To(Equal(conversation.NoAnswer))
		Expect(items[1].Citations).To(BeEmpty())
	})

	It("treats a malformed body as a failure", func() {
		respond(http.StatusOK, `<<not json>>`)

		store.Submit(context.Background(), "q")

		st := store.Snapshot()
		Expect(st.Messages[1].Content).To(Equal(conversation.FailureNotice))
		Expect(st.LastError).To(ContainSubstring("malformed response"))
	})

	It("restores the transcript after a restart", func() {
		respond(http.StatusOK, `{"answer":"yes","sources":"a.md\nb.md"}`)
		store.Submit(context.Background(), "persist me")
		before := store.Snapshot().Messages
		Expect(kv.Close()).To(Succeed())

		reopened, err := storage.OpenBolt(dbPath)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = reopened.Close() })

		restored := conversation.New(nil, reopened)
		Expect(restored.Initialize()).To(Succeed())
		Expect(restored.Snapshot().Messages).To(Equal(before))
	})

	It("leaves nothing behind after clear", func() {
		respond(http.StatusOK, `{"answer":"yes"}`)
		store.Submit(context.Background(), "q")

		Expect(store.Clear()).To(Succeed())

		Expect(store.Snapshot().Messages).To(BeEmpty())
		_, ok, err := kv.Get(conversation.DefaultKey)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
})
