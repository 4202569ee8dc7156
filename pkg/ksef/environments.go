package ksef

import (
	"fmt"
	"strings"
)

// Raíces de los ambientes KSeF.
const (
	EnvironmentTest = "https://ksef-test.mf.gov.pl"
	EnvironmentDemo = "https://ksef-demo.mf.gov.pl"
	EnvironmentProd = "https://ksef.mf.gov.pl"
)

// ClientAppPath prefijo fijo de la aplicación de verificación.
const ClientAppPath = "/client-app"

// EnvironmentURL resuelve "test", "demo" o "prod" a la raíz del ambiente.
func EnvironmentURL(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "test", "":
		return EnvironmentTest, nil
	case "demo":
		return EnvironmentDemo, nil
	case "prod", "production":
		return EnvironmentProd, nil
	}
	return "", fmt.Errorf("ksef: ambiente desconocido %q (test, demo o prod)", name)
}

// ClientAppURL devuelve la URL base de los enlaces de verificación para la raíz de un ambiente.
func ClientAppURL(environmentURL string) string {
	return strings.TrimRight(environmentURL, "/") + ClientAppPath
}
