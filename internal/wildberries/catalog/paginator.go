package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wbanalytics_api/internal/wildberries/dto"
)

const DefaultPageLimit = 100

// CardSource -- одна страница каталога по курсору (реализуется wb-клиентом).
type CardSource interface {
	Cards(ctx context.Context, cursor dto.Cursor) (*dto.CardsResponse, error)
}

// Card -- нормализованная карточка каталога. Отсутствующие вложенные поля
// деградируют в пустые значения, страница при этом не падает.
type Card struct {
	NmID       int64
	VendorCode string
	Brand      string
	Title      string
	Barcode    string
	Tags       []string
	ImageURL   string
	Sizes      []dto.Size
}

// Paginator последовательно выгребает каталог по курсору {limit, updatedAt, nmID}.
// Страница N+1 запрашивается только после получения курсора страницы N.
type Paginator struct {
	source CardSource
	limit  int
	log    *zap.Logger
}

func NewPaginator(source CardSource, limit int, log *zap.Logger) *Paginator {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return &Paginator{source: source, limit: limit, log: log}
}

// FetchAll выгружает весь каталог. Остановка проверяется на каждой странице
// в порядке: пустая страница; курсор без continuation-ключей; страница короче
// запрошенного лимита.
func (p *Paginator) FetchAll(ctx context.Context) ([]Card, error) {
	var cards []Card
	cursor := dto.Cursor{Limit: p.limit}
	page := 0

	for {
		resp, err := p.source.Cards(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetching catalog page %d: %w", page, err)
		}
		page++

		if len(resp.Cards) == 0 {
			break
		}
		for _, raw := range resp.Cards {
			cards = append(cards, Normalize(raw))
		}

		if resp.Cursor.UpdatedAt == "" && resp.Cursor.NmID == 0 {
			break
		}
		cursor = dto.Cursor{
			Limit:     p.limit,
			UpdatedAt: resp.Cursor.UpdatedAt,
			NmID:      resp.Cursor.NmID,
		}
		if len(resp.Cards) < p.limit {
			break
		}
	}

	p.log.Info("catalog fetched", zap.Int("pages", page), zap.Int("cards", len(cards)))
	return cards, nil
}

// Normalize извлекает плоскую карточку из сырого ответа WB.
func Normalize(raw dto.Card) Card {
	card := Card{
		NmID:       raw.NmID,
		VendorCode: raw.VendorCode,
		Brand:      raw.Brand,
		Title:      raw.Object,
		Sizes:      raw.Sizes,
	}

	if len(raw.Sizes) > 0 && len(raw.Sizes[0].Skus) > 0 {
		card.Barcode = raw.Sizes[0].Skus[0]
	}
	for _, tag := range raw.Tags {
		if tag.Name != "" {
			card.Tags = append(card.Tags, tag.Name)
		}
	}
	if len(raw.MediaFiles) > 0 {
		card.ImageURL = raw.MediaFiles[0]
	}
	return card
}
