// Package ksef: catálogos públicos del sistema KSeF (Krajowy System e-Faktur)
// usados al construir los enlaces de verificación.

package ksef

import (
	"fmt"
	"strings"
)

// ContextIdentifierType indica qué identificador del contribuyente va en el enlace de certificado.
type ContextIdentifierType int

const (
	ContextNip ContextIdentifierType = iota + 1
	ContextInternalID
	ContextNipVatUe
	ContextPeppolID
)

var contextNames = map[ContextIdentifierType]string{
	ContextNip:        "Nip",
	ContextInternalID: "InternalId",
	ContextNipVatUe:   "NipVatUe",
	ContextPeppolID:   "PeppolId",
}

// String devuelve la proyección estable usada como segmento de la URL.
func (t ContextIdentifierType) String() string {
	if s, ok := contextNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ContextIdentifierType(%d)", int(t))
}

// Valid indica si t es uno de los tipos conocidos.
func (t ContextIdentifierType) Valid() bool {
	_, ok := contextNames[t]
	return ok
}

// ParseContextIdentifierType acepta la proyección de String() sin distinguir mayúsculas.
func ParseContextIdentifierType(s string) (ContextIdentifierType, error) {
	s = strings.TrimSpace(s)
	for t, name := range contextNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("ksef: tipo de identificador de contexto desconocido %q", s)
}
