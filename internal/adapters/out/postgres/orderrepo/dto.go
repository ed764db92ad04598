// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"errors"
	"fmt"
	"time"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Statuses are stored by name so that rows stay readable and an unknown name
// can be detected when reading back.
type OrderDTO struct {
	ID                    string             `gorm:"type:varchar(7);primaryKey"`
	Status                string             `gorm:"not null;index"`
	Customer              CustomerDTO        `gorm:"embedded;embeddedPrefix:customer_"`
	Total                 int64              `gorm:"not null"`
	PreferredDeliveryTime string             `gorm:"not null;default:''"`
	Version               int64              `gorm:"not null;default:0"`
	CreatedAt             time.Time          `gorm:"not null;autoCreateTime:false"`
	UpdatedAt             time.Time          `gorm:"not null;autoUpdateTime:false"`
	Items                 []OrderItemDTO     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History               []StatusHistoryDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// CustomerDTO is embedded into the orders table.
type CustomerDTO struct {
	Name      string  `gorm:"not null"`
	Phone     string  `gorm:"not null"`
	Latitude  float64 `gorm:"not null"`
	Longitude float64 `gorm:"not null"`
}

// OrderItemDTO is one row of order_items. Position keeps the original item order.
type OrderItemDTO struct {
	ID        uint64     `gorm:"primaryKey"`
	OrderID   string     `gorm:"type:varchar(7);not null;uniqueIndex:idx_order_items_position"`
	Position  int        `gorm:"not null;uniqueIndex:idx_order_items_position"`
	ItemID    string     `gorm:"not null"`
	Name      string     `gorm:"not null"`
	UnitPrice int64      `gorm:"not null"`
	Quantity  int        `gorm:"not null"`
	Extras    []ExtraDTO `gorm:"type:jsonb;not null;serializer:json"`
}

func (OrderItemDTO) TableName() string {
	return "order_items"
}

// ExtraDTO is the JSON shape of an extra. Label extras only carry Label;
// priced extras carry ID, Name and Price.
type ExtraDTO struct {
	Label string `json:"label,omitempty"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Price int64  `json:"price,omitempty"`
}

// StatusHistoryDTO is one row of order_status_history.
type StatusHistoryDTO struct {
	ID        uint64    `gorm:"primaryKey"`
	OrderID   string    `gorm:"type:varchar(7);not null;uniqueIndex:idx_order_status_history_status"`
	Status    string    `gorm:"not null;uniqueIndex:idx_order_status_history_status"`
	EnteredAt time.Time `gorm:"not null"`
}

func (StatusHistoryDTO) TableName() string {
	return "order_status_history"
}

// fromDomain converts an order aggregate to its database representation,
// including items and the full history.
func fromDomain(aggregate *order.Order) OrderDTO {
	customer := aggregate.Customer()
	dto := OrderDTO{
		ID:     aggregate.ID().String(),
		Status: aggregate.Status().String(),
		Customer: CustomerDTO{
			Name:      customer.Name(),
			Phone:     customer.Phone(),
			Latitude:  customer.Location().Latitude(),
			Longitude: customer.Location().Longitude(),
		},
		Total:                 aggregate.Total(),
		PreferredDeliveryTime: aggregate.PreferredDeliveryTime(),
		Version:               aggregate.Version(),
		CreatedAt:             aggregate.CreatedAt(),
		UpdatedAt:             aggregate.UpdatedAt(),
	}

	for position, item := range aggregate.Items() {
		itemDTO := OrderItemDTO{
			OrderID:   dto.ID,
			Position:  position,
			ItemID:    item.ID(),
			Name:      item.Name(),
			UnitPrice: item.UnitPrice(),
			Quantity:  item.Quantity(),
			Extras:    make([]ExtraDTO, 0, len(item.Extras())),
		}
		for _, extra := range item.Extras() {
			if extra.IsStructured() {
				itemDTO.Extras = append(itemDTO.Extras, ExtraDTO{ID: extra.ID(), Name: extra.Name(), Price: extra.Price()})
			} else {
				itemDTO.Extras = append(itemDTO.Extras, ExtraDTO{Label: extra.Label()})
			}
		}
		dto.Items = append(dto.Items, itemDTO)
	}

	dto.History = historyDTOs(dto.ID, aggregate.History().Entries())
	return dto
}

func historyDTOs(orderID string, entries []order.HistoryEntry) []StatusHistoryDTO {
	dtos := make([]StatusHistoryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, StatusHistoryDTO{
			OrderID:   orderID,
			Status:    entry.Status.String(),
			EnteredAt: entry.At,
		})
	}
	return dtos
}

// toDomain parses a stored order. Every field is validated through the domain
// constructors; any failure means the row is corrupted.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.OrderIDFromString(dto.ID)
	if err != nil {
		return nil, err
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	location, err := kernel.NewLocation(dto.Customer.Latitude, dto.Customer.Longitude)
	if err != nil {
		return nil, err
	}

	customer, err := order.NewCustomer(dto.Customer.Name, dto.Customer.Phone, location)
	if err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		item, itemErr := itemToDomain(itemDTO)
		if itemErr != nil {
			return nil, fmt.Errorf("item %d: %w", itemDTO.Position, itemErr)
		}
		items = append(items, item)
	}

	history := make([]order.HistoryEntry, 0, len(dto.History))
	for _, entry := range dto.History {
		entryStatus, statusErr := order.ParseStatus(entry.Status)
		if statusErr != nil {
			return nil, fmt.Errorf("status history: %w", statusErr)
		}
		history = append(history, order.HistoryEntry{Status: entryStatus, At: entry.EnteredAt})
	}

	return order.RestoreOrder(order.State{
		ID:                    id,
		Customer:              customer,
		Items:                 items,
		Total:                 dto.Total,
		PreferredDeliveryTime: dto.PreferredDeliveryTime,
		Status:                status,
		History:               history,
		CreatedAt:             dto.CreatedAt,
		UpdatedAt:             dto.UpdatedAt,
		Version:               dto.Version,
	})
}

func itemToDomain(dto OrderItemDTO) (order.Item, error) {
	extras := make([]order.Extra, 0, len(dto.Extras))
	for _, extraDTO := range dto.Extras {
		var (
			extra order.Extra
			err   error
		)
		switch {
		case extraDTO.ID != "":
			extra, err = order.NewPricedExtra(extraDTO.ID, extraDTO.Name, extraDTO.Price)
		case extraDTO.Label != "":
			extra, err = order.NewLabelExtra(extraDTO.Label)
		default:
			err = errors.New("extra has neither id nor label")
		}
		if err != nil {
			return order.Item{}, err
		}
		extras = append(extras, extra)
	}

	return order.NewItem(dto.ItemID, dto.Name, dto.UnitPrice, dto.Quantity, extras)
}
