package http

import (
	"time"

	"restaurant/internal/core/application/usecases/queries"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
)

type LocationDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type CustomerDTO struct {
	Name     string      `json:"name"`
	Phone    string      `json:"phone"`
	Location LocationDTO `json:"location"`
}

type ExtraDTO struct {
	Label string `json:"label,omitempty"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Price int64  `json:"price,omitempty"`
}

type ItemDTO struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Price    int64      `json:"price"`
	Quantity int        `json:"quantity"`
	Extras   []ExtraDTO `json:"extras,omitempty"`
}

// NewOrderRequest is the body of POST /api/v1/orders.
type NewOrderRequest struct {
	Customer              CustomerDTO `json:"customer"`
	Items                 []ItemDTO   `json:"items"`
	Total                 int64       `json:"total"`
	PreferredDeliveryTime string      `json:"preferredDeliveryTime,omitempty"`
}

type CreatedOrderResponse struct {
	ID        string `json:"id"`
	DisplayID string `json:"displayId"`
}

// StatusChangeRequest is the body of both status update endpoints.
type StatusChangeRequest struct {
	Status string `json:"status"`
}

type OrderResponse struct {
	ID                    string               `json:"id"`
	DisplayID             string               `json:"displayId"`
	Status                string               `json:"status"`
	Customer              CustomerDTO          `json:"customer"`
	Items                 []ItemDTO            `json:"items"`
	Total                 int64                `json:"total"`
	PreferredDeliveryTime string               `json:"preferredDeliveryTime,omitempty"`
	StatusHistory         map[string]time.Time `json:"statusHistory"`
	NextStatus            string               `json:"nextStatus,omitempty"`
	CreatedAt             time.Time            `json:"createdAt"`
	UpdatedAt             time.Time            `json:"updatedAt"`
}

type DailyOrdersResponse struct {
	Day     string          `json:"day"`
	Orders  []OrderResponse `json:"orders"`
	Counts  map[string]int  `json:"counts"`
	Revenue int64           `json:"revenue"`
}

// FeedMessage is one websocket frame of the order feed.
type FeedMessage struct {
	Orders []OrderResponse `json:"orders,omitempty"`
	Error  *ErrorResponse  `json:"error,omitempty"`
}

// toDomain converts the request body into domain values. Validation errors
// of every field are returned together.
func (r NewOrderRequest) toDomain() (order.Customer, []order.Item, error) {
	location, err := kernel.NewLocation(r.Customer.Location.Latitude, r.Customer.Location.Longitude)
	if err != nil {
		return order.Customer{}, nil, err
	}
	customer, err := order.NewCustomer(r.Customer.Name, r.Customer.Phone, location)
	if err != nil {
		return order.Customer{}, nil, err
	}

	items := make([]order.Item, 0, len(r.Items))
	for _, itemDTO := range r.Items {
		extras := make([]order.Extra, 0, len(itemDTO.Extras))
		for _, extraDTO := range itemDTO.Extras {
			var extra order.Extra
			if extraDTO.ID != "" {
				extra, err = order.NewPricedExtra(extraDTO.ID, extraDTO.Name, extraDTO.Price)
			} else {
				extra, err = order.NewLabelExtra(extraDTO.Label)
			}
			if err != nil {
				return order.Customer{}, nil, err
			}
			extras = append(extras, extra)
		}

		item, itemErr := order.NewItem(itemDTO.ID, itemDTO.Name, itemDTO.Price, itemDTO.Quantity, extras)
		if itemErr != nil {
			return order.Customer{}, nil, itemErr
		}
		items = append(items, item)
	}

	return customer, items, nil
}

func toOrderResponse(view queries.OrderView) OrderResponse {
	response := OrderResponse{
		ID:        view.ID.String(),
		DisplayID: view.DisplayID(),
		Status:    view.Status.String(),
		Customer: CustomerDTO{
			Name:  view.Customer.Name,
			Phone: view.Customer.Phone,
			Location: LocationDTO{
				Latitude:  view.Customer.Latitude,
				Longitude: view.Customer.Longitude,
			},
		},
		Items:                 make([]ItemDTO, 0, len(view.Items)),
		Total:                 view.Total,
		PreferredDeliveryTime: view.PreferredDeliveryTime,
		StatusHistory:         make(map[string]time.Time, len(view.StatusHistory)),
		CreatedAt:             view.CreatedAt,
		UpdatedAt:             view.UpdatedAt,
	}

	for _, item := range view.Items {
		itemDTO := ItemDTO{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.UnitPrice,
			Quantity: item.Quantity,
		}
		for _, extra := range item.Extras {
			itemDTO.Extras = append(itemDTO.Extras, ExtraDTO(extra))
		}
		response.Items = append(response.Items, itemDTO)
	}

	for _, entry := range view.StatusHistory {
		response.StatusHistory[entry.Status.String()] = entry.EnteredAt
	}

	if next, ok := view.Status.Next(); ok {
		response.NextStatus = next.String()
	}

	return response
}

func toOrderResponses(views []queries.OrderView) []OrderResponse {
	responses := make([]OrderResponse, 0, len(views))
	for _, view := range views {
		responses = append(responses, toOrderResponse(view))
	}
	return responses
}
