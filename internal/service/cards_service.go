package service

import (
	"context"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var cardsTracer = otel.Tracer("service/cards")

// CardsService manages credit and debit cards.
type CardsService struct {
	store    port.CardStore
	accounts port.AccountStore
	logger   *zap.Logger
}

func NewCardsService(store port.CardStore, accounts port.AccountStore, logger *zap.Logger) *CardsService {
	return &CardsService{store: store, accounts: accounts, logger: logger}
}

func (s *CardsService) ListCards(ctx context.Context, userID string) ([]domain.Card, error) {
	ctx, span := cardsTracer.Start(ctx, "CardsService.ListCards")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.store.ListCards(ctx, userID)
}

func (s *CardsService) GetCard(ctx context.Context, userID, cardID string) (*domain.Card, error) {
	ctx, span := cardsTracer.Start(ctx, "CardsService.GetCard")
	defer span.End()

	return s.store.GetCard(ctx, userID, cardID)
}

func (s *CardsService) CreateCard(ctx context.Context, userID string, req *domain.CardRequest) (*domain.Card, error) {
	ctx, span := cardsTracer.Start(ctx, "CardsService.CreateCard")
	defer span.End()

	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "Nome é obrigatório"}
	}
	if req.Type != domain.CardCredito && req.Type != domain.CardDebito {
		return nil, &domain.ErrValidation{Field: "type", Message: "Tipo de cartão inválido"}
	}
	if req.AccountID == "" {
		return nil, &domain.ErrValidation{Field: "accountId", Message: "Conta é obrigatória"}
	}
	if req.Type == domain.CardCredito {
		if req.ClosingDay < 1 || req.ClosingDay > 31 {
			return nil, &domain.ErrValidation{Field: "closingDay", Message: "Dia de fechamento deve estar entre 1 e 31"}
		}
		if req.DueDay < 1 || req.DueDay > 31 {
			return nil, &domain.ErrValidation{Field: "dueDay", Message: "Dia de vencimento deve estar entre 1 e 31"}
		}
	}

	// the account must belong to the requesting user
	if _, err := s.accounts.GetAccount(ctx, userID, req.AccountID); err != nil {
		return nil, err
	}

	return s.store.CreateCard(ctx, domain.Card{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       req.Name,
		Type:       req.Type,
		Limit:      req.Limit,
		ClosingDay: req.ClosingDay,
		DueDay:     req.DueDay,
		AccountID:  req.AccountID,
		Active:     true,
	})
}

func (s *CardsService) UpdateCard(ctx context.Context, userID, cardID string, req *domain.CardRequest) (*domain.Card, error) {
	ctx, span := cardsTracer.Start(ctx, "CardsService.UpdateCard")
	defer span.End()

	card, err := s.store.GetCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if card.Type == domain.CardCredito {
		if req.Limit > 0 {
			fields["credit_limit"] = req.Limit
		}
		if req.ClosingDay >= 1 && req.ClosingDay <= 31 {
			fields["closing_day"] = req.ClosingDay
		}
		if req.DueDay >= 1 && req.DueDay <= 31 {
			fields["due_day"] = req.DueDay
		}
	}
	if len(fields) > 0 {
		if err := s.store.UpdateCard(ctx, userID, cardID, fields); err != nil {
			return nil, err
		}
	}
	return s.store.GetCard(ctx, userID, cardID)
}

// AlterCardStatus flips the active flag.
func (s *CardsService) AlterCardStatus(ctx context.Context, userID, cardID string) (*domain.Card, error) {
	ctx, span := cardsTracer.Start(ctx, "CardsService.AlterCardStatus")
	defer span.End()

	card, err := s.store.GetCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateCard(ctx, userID, cardID, map[string]any{"active": !card.Active}); err != nil {
		return nil, err
	}
	card.Active = !card.Active
	s.logger.Info("card status changed",
		zap.String("card_id", cardID),
		zap.Bool("active", card.Active),
	)
	return card, nil
}

func (s *CardsService) DeleteCard(ctx context.Context, userID, cardID string) error {
	ctx, span := cardsTracer.Start(ctx, "CardsService.DeleteCard")
	defer span.End()

	if _, err := s.store.GetCard(ctx, userID, cardID); err != nil {
		return err
	}
	if err := s.store.DeleteCard(ctx, userID, cardID); err != nil {
		return err
	}
	s.logger.Info("card deleted", zap.String("card_id", cardID))
	return nil
}
