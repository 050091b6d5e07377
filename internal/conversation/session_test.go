package conversation

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-bot/internal/invoice"
)

func storeBehaviour(newStore func() SessionStore) {
	var (
		store   SessionStore
		session *Session
	)

	BeforeEach(func() {
		store = newStore()
		amount := "50,00"
		inv := &invoice.Invoice{Amount: &amount}
		inv.SetCategory(1)
		session = &Session{
			Step:      StepPayment,
			Invoice:   inv,
			UpdatedAt: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
		}
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	When("no session was stored", func() {
		It("returns ErrSessionNotFound", func() {
			_, err := store.Get(user)
			Expect(err).To(MatchError(ErrSessionNotFound))
		})
	})

	When("a session was stored", func() {
		BeforeEach(func() {
			Expect(store.Put(user, session)).To(Succeed())
		})

		It("returns it", func() {
			got, err := store.Get(user)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Step).To(Equal(StepPayment))
			Expect(*got.Invoice.Amount).To(Equal("50,00"))
			Expect(got.Invoice.CategoryTag()).To(Equal("🛒 Supermercado"))
			Expect(got.UpdatedAt.Equal(session.UpdatedAt)).To(BeTrue())
		})

		It("keeps sessions per user", func() {
			_, err := store.Get("someone-else")
			Expect(err).To(MatchError(ErrSessionNotFound))
		})

		It("is not affected by later changes to the caller's copy", func() {
			session.Invoice.SetCategory(2)
			got, err := store.Get(user)
			Expect(err).NotTo(HaveOccurred())
			Expect(*got.Invoice.CategoryCode).To(Equal(1))
		})

		It("replaces it on Put", func() {
			Expect(store.Put(user, &Session{Step: StepCategory, Invoice: &invoice.Invoice{}})).To(Succeed())
			got, err := store.Get(user)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Step).To(Equal(StepCategory))
			Expect(got.Invoice.Amount).To(BeNil())
		})

		It("removes it on Delete", func() {
			Expect(store.Delete(user)).To(Succeed())
			_, err := store.Get(user)
			Expect(err).To(MatchError(ErrSessionNotFound))
		})
	})

	It("deletes missing sessions without error", func() {
		Expect(store.Delete("nobody")).To(Succeed())
	})
}

var _ = Describe("MemoryStore", func() {
	storeBehaviour(func() SessionStore { return NewMemoryStore() })
})

var _ = Describe("BoltStore", func() {
	storeBehaviour(func() SessionStore {
		store, err := NewBoltStore(filepath.Join(GinkgoT().TempDir(), "sessions.db"))
		Expect(err).NotTo(HaveOccurred())
		return store
	})

	It("keeps sessions across reopen", func() {
		path := filepath.Join(GinkgoT().TempDir(), "sessions.db")
		store, err := NewBoltStore(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Put(user, &Session{Step: StepDescription, Invoice: &invoice.Invoice{}})).To(Succeed())
		Expect(store.Close()).To(Succeed())

		store, err = NewBoltStore(path)
		Expect(err).NotTo(HaveOccurred())
		defer store.Close()
		got, err := store.Get(user)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Step).To(Equal(StepDescription))
	})
})
