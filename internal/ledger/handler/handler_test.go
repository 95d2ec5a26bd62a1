package handler

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"launder/internal/ledger/models"
	"launder/internal/ledger/service"
	"launder/internal/ledger/store/account"
	"launder/internal/platform/logger"
	"launder/pkg/testutil"
)

// HandlerSuite exercises the ledger HTTP surface against a real in-memory store.
type HandlerSuite struct {
	suite.Suite
	router http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	svc, err := service.New(account.NewInMemory(), service.WithLogger(logger.Discard()))
	s.Require().NoError(err)

	r := chi.NewRouter()
	New(svc, logger.Discard()).Register(r)
	s.router = r
}

func (s *HandlerSuite) provision(name string) models.AccountResponse {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPut, "/accounts/"+name))
	s.Require().Equal(http.StatusOK, rr.Code)
	return *testutil.UnmarshalResponse[models.AccountResponse](s.T(), rr)
}

// =============================================================================
// Provisioning
// =============================================================================

func (s *HandlerSuite) TestGetOrCreate_Idempotent() {
	first := s.provision("Syndicate1-dirty")
	second := s.provision("Syndicate1-dirty")
	s.Equal(first.ID, second.ID)
	s.Equal("Syndicate1-dirty", second.Name)
}

// =============================================================================
// Balances and transfers
// =============================================================================

func (s *HandlerSuite) TestTransferAndBalance() {
	funded := s.provision("FundedAccount")
	dirty := s.provision("Syndicate1-dirty")

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost,
		"/accounts/FundedAccount/mint", models.MintRequest{Amount: 200_000}))
	s.Require().Equal(http.StatusNoContent, rr.Code)

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost,
		"/transfers", models.TransferRequest{From: "FundedAccount", To: "Syndicate1-dirty", Amount: 100_000}))
	s.Require().Equal(http.StatusNoContent, rr.Code)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/accounts/"+dirty.ID.String()+"/balance"))
	testutil.AssertStatusOK(s.T(), rr)
	bal := testutil.UnmarshalResponse[models.BalanceResponse](s.T(), rr)
	s.Equal(int64(100_000), bal.Balance)
	s.Equal("$100,000", bal.FormattedCash)
	s.Equal("0.100000", bal.Formatted)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/accounts/"+funded.ID.String()+"/balance"))
	s.Equal(int64(100_000), testutil.UnmarshalResponse[models.BalanceResponse](s.T(), rr).Balance)
}

func (s *HandlerSuite) TestTransfer_InsufficientFunds() {
	s.provision("A")
	s.provision("B")

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost,
		"/transfers", models.TransferRequest{From: "A", To: "B", Amount: 1}))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusPaymentRequired, "insufficient_funds")
}

func (s *HandlerSuite) TestTransfer_InvalidJSON() {
	rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/transfers", "not json"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestBalance_BadID() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/accounts/not-a-uuid/balance"))
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}
