package contract

import (
	"github.com/google/uuid"

	"tourrental/internal/domain"
)

// diff lists the tracked fields whose requested value differs from the stored one.
func diff(current *domain.Contract, in UpdateInput) []domain.FieldChange {
	var changes []domain.FieldChange
	if in.StatusID != nil && *in.StatusID != current.StatusID {
		changes = append(changes, domain.FieldChange{
			Field:    "status",
			OldValue: current.StatusID.String(),
			NewValue: in.StatusID.String(),
		})
	}
	if in.ReservingUserID != nil && *in.ReservingUserID != current.ReservingUserID {
		changes = append(changes, domain.FieldChange{
			Field:    "reservingUser",
			OldValue: current.ReservingUserID.String(),
			NewValue: in.ReservingUserID.String(),
		})
	}
	if in.ConciergeID != nil {
		requested := requestedConcierge(*in.ConciergeID)
		if !sameUUID(current.ConciergeID, requested) {
			changes = append(changes, domain.FieldChange{
				Field:    "concierge",
				OldValue: uuidValue(current.ConciergeID),
				NewValue: uuidValue(requested),
			})
		}
	}
	if in.Extension != nil && !in.Extension.Equal(current.Extension) {
		changes = append(changes, domain.FieldChange{
			Field:    "extension",
			OldValue: extensionValue(current.Extension),
			NewValue: extensionValue(*in.Extension),
		})
	}
	return changes
}

// requestedConcierge maps the uuid.Nil "clear" marker to no concierge.
func requestedConcierge(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func sameUUID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func uuidValue(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func extensionValue(e domain.ContractExtension) any {
	if e.IsZero() {
		return nil
	}
	return e
}

func updateColumns(in UpdateInput) map[string]any {
	fields := make(map[string]any)
	if in.StatusID != nil {
		fields["status_id"] = *in.StatusID
	}
	if in.ReservingUserID != nil {
		fields["reserving_user_id"] = *in.ReservingUserID
	}
	if in.ConciergeID != nil {
		if *in.ConciergeID == uuid.Nil {
			fields["concierge_id"] = nil
		} else {
			fields["concierge_id"] = *in.ConciergeID
		}
	}
	if e := in.Extension; e != nil {
		fields["extension_new_end_date_time"] = e.NewEndDateTime
		fields["extension_payment_method_id"] = e.PaymentMethodID
		fields["extension_amount"] = e.Amount
		fields["extension_commission_percentage"] = e.CommissionPercentage
		fields["extension_status_id"] = e.StatusID
	}
	return fields
}
