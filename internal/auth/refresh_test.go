package auth

import (
	"testing"
	"time"
)

func TestGenerateRefreshToken(t *testing.T) {
	raw, hashed, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if raw == "" || hashed == "" {
		t.Fatal("token e hash não podem ser vazios")
	}
	if raw == hashed {
		t.Fatal("hash não pode ser igual ao token cru")
	}
	if HashRefreshToken(raw) != hashed {
		t.Fatal("hash deveria ser determinístico")
	}

	raw2, _, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if raw == raw2 {
		t.Fatal("tokens consecutivos não podem colidir")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("um-segredo-de-teste-com-32-chars!", 15*time.Minute)

	token, jti, err := m.GenerateAccessToken("sub-1", "COORDENADOR")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if jti == "" {
		t.Fatal("jti vazio")
	}

	claims, err := m.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("token recém emitido deveria validar: %v", err)
	}
	if claims.Subject != "sub-1" || claims.Cargo != "COORDENADOR" {
		t.Fatalf("claims inesperadas: %+v", claims)
	}
}

func TestParseAndValidateRejeitaSegredoErrado(t *testing.T) {
	emissor := NewJWTManager("um-segredo-de-teste-com-32-chars!", 15*time.Minute)
	validador := NewJWTManager("outro-segredo-de-teste-32-chars!!", 15*time.Minute)

	token, _, err := emissor.GenerateAccessToken("sub-1", "PROFESSOR")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	if _, err := validador.ParseAndValidate(token); err == nil {
		t.Fatal("assinatura de outro segredo deveria falhar")
	}
}
