package data

import (
	"github.com/rs/zerolog/log"

	"github.com/Kaanturkoglu/SIVAP/internal/domain/contract"
)

// Canonical export headers.
const (
	colCustomerCode   = "Müşteri Kodu"
	colContractNumber = "Sözleşme No"
	colMembershipName = "Üyelik Adı"
	colMembershipKind = "Üyelik Tipi"
	colContractType   = "Söz. Türü"
	colStatus         = "Sözleşme Durumu"
	colDetailStatus   = "Sözleşme Detay Durumu"
	colCandidateType  = "Aday Türü"
	colGender         = "Cinsiyet"
	colMarital        = "Medeni Durumu"
	colBirthDate      = "Doğum Tarihi"
	colSaleDate       = "Satış Tarihi"
	colStartDate      = "Başlangıç T."
	colEndDate        = "Ek Süreli Bitiş T."
	colAmount         = "Tutar ( TL )"
	colCancelReason   = "İptal Sebebi"
)

// LoadContracts reads the membership-contract export. Rows are raw: the
// Normalizer derives ages, marital status and drop rules afterwards.
func LoadContracts(path string) ([]contract.Contract, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(colCustomerCode, colContractNumber, colStartDate, colEndDate); err != nil {
		return nil, err
	}

	out := make([]contract.Contract, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, contract.Contract{
			CustomerCode:   t.get(row, colCustomerCode),
			Number:         t.get(row, colContractNumber),
			MembershipName: t.get(row, colMembershipName),
			MembershipKind: t.get(row, colMembershipKind),
			ContractType:   t.get(row, colContractType),
			Status:         t.get(row, colStatus),
			DetailStatus:   t.get(row, colDetailStatus),
			CandidateType:  t.get(row, colCandidateType),
			BirthDate:      t.getDate(row, colBirthDate),
			SaleDate:       t.getDate(row, colSaleDate),
			StartDate:      t.getDate(row, colStartDate),
			EndDate:        t.getDate(row, colEndDate),
			Amount:         t.getFloat(row, colAmount),
		})
	}
	log.Info().Str("source", path).Int("rows", len(out)).Msg("contracts loaded")
	return out, nil
}

// LoadCustomers reads the customer-demographics export.
func LoadCustomers(path string) ([]contract.Customer, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(colCustomerCode); err != nil {
		return nil, err
	}

	out := make([]contract.Customer, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, contract.Customer{
			Code:          t.get(row, colCustomerCode),
			Gender:        t.get(row, colGender),
			MaritalStatus: t.get(row, colMarital),
		})
	}
	log.Info().Str("source", path).Int("rows", len(out)).Msg("customers loaded")
	return out, nil
}

// LoadCancellations reads the cancellation-notice export.
func LoadCancellations(path string) ([]contract.Cancellation, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(colContractNumber, colCancelReason); err != nil {
		return nil, err
	}

	out := make([]contract.Cancellation, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, contract.Cancellation{
			ContractNumber: t.get(row, colContractNumber),
			Reason:         t.get(row, colCancelReason),
		})
	}
	log.Info().Str("source", path).Int("rows", len(out)).Msg("cancellations loaded")
	return out, nil
}
