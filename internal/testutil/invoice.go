package testutil

import "fmt"

// InvoiceXML factura FA(3) mínima con los campos que lee invoicexml.
func InvoiceXML(nip, number, issueDate string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Faktura xmlns="http://crd.gov.pl/wzor/2025/06/25/13775/">
  <Podmiot1>
    <DaneIdentyfikacyjne>
      <NIP>%s</NIP>
      <Nazwa>Firma Testowa Sp. z o.o.</Nazwa>
    </DaneIdentyfikacyjne>
  </Podmiot1>
  <Fa>
    <P_1>%s</P_1>
    <P_2>%s</P_2>
  </Fa>
</Faktura>`, nip, issueDate, number)
}
