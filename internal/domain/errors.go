package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrEncoding         = errors.New("codificación inválida")
	ErrSignatureInvalid = errors.New("firma inválida")

	// ErrSigningUnavailable: no hay llave privada utilizable para el certificado.
	// Siempre llega envuelto en uno de los casos concretos de abajo.
	ErrSigningUnavailable = errors.New("firma no disponible")

	ErrPrivateKeyMissing       = fmt.Errorf("%w: el certificado no contiene llave privada RSA ni ECDSA", ErrSigningUnavailable)
	ErrKeyAlgorithmUnsupported = fmt.Errorf("%w: algoritmo de llave no soportado, se requiere RSA o ECDSA", ErrSigningUnavailable)
	ErrKeyMismatch             = fmt.Errorf("%w: la llave privada no corresponde a la llave pública del certificado", ErrSigningUnavailable)
)
