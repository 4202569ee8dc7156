package ksef

import "fmt"

// pesos del dígito de control del NIP polaco, aplicados a los 9 primeros dígitos.
var nipWeights = [9]int{6, 5, 7, 2, 3, 4, 5, 6, 7}

// ValidateNIP valida un NIP de 10 dígitos (acepta guiones y espacios, p. ej. "123-456-32-18").
// El resto módulo 11 debe coincidir con el último dígito; un resto de 10 nunca es válido.
func ValidateNIP(nip string) error {
	digits := extractDigits(nip)
	if len(digits) != 10 {
		return fmt.Errorf("ksef: NIP debe tener 10 dígitos, se encontraron %d", len(digits))
	}
	expected, err := ComputeNIPCheckDigit(string(digits[:9]))
	if err != nil {
		return err
	}
	if digits[9] != expected {
		return fmt.Errorf("ksef: dígito de control del NIP inválido: esperado %c, recibido %c", expected, digits[9])
	}
	return nil
}

// ComputeNIPCheckDigit calcula el dígito de control para los 9 primeros dígitos del NIP.
func ComputeNIPCheckDigit(nip string) (byte, error) {
	digits := extractDigits(nip)
	if len(digits) < 9 {
		return 0, fmt.Errorf("ksef: se requieren 9 dígitos para calcular el dígito de control, se encontraron %d", len(digits))
	}
	var sum int
	for i, d := range digits[:9] {
		sum += int(d-'0') * nipWeights[i]
	}
	remainder := sum % 11
	if remainder == 10 {
		return 0, fmt.Errorf("ksef: los dígitos %s no admiten dígito de control", string(digits[:9]))
	}
	return byte('0' + remainder), nil
}

// extractDigits conserva solo los dígitos ASCII.
func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, byte(r))
		}
	}
	return out
}
