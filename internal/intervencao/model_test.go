package intervencao

import (
	"errors"
	"testing"
	"time"

	"github.com/apoiaedu/api/internal/apperr"
)

func TestAtualizarProgressoForaDoIntervalo(t *testing.T) {
	agora := time.Now()

	for _, valor := range []int{-1, 101} {
		i := Intervencao{Status: StatusAtiva, Progresso: 10}

		err := i.AtualizarProgresso(valor, agora)
		var appErr *apperr.AppError
		if !errors.As(err, &appErr) || appErr.Code != "INTERVENCAO_INVALID_PROGRESS" {
			t.Fatalf("valor %d: esperado INTERVENCAO_INVALID_PROGRESS, veio %v", valor, err)
		}
		if i.Progresso != 10 {
			t.Fatalf("progresso não deveria mudar, está %d", i.Progresso)
		}
	}
}

func TestAtualizarProgressoSomenteAtiva(t *testing.T) {
	agora := time.Now()

	for _, status := range []Status{StatusConcluida, StatusCancelada} {
		i := Intervencao{Status: status, Progresso: 50}

		err := i.AtualizarProgresso(60, agora)
		var appErr *apperr.AppError
		if !errors.As(err, &appErr) || appErr.Code != "INTERVENCAO_NOT_ACTIVE" {
			t.Fatalf("status %s: esperado INTERVENCAO_NOT_ACTIVE, veio %v", status, err)
		}
	}
}

func TestAtualizarProgressoCemConclui(t *testing.T) {
	agora := time.Now()
	i := Intervencao{Status: StatusAtiva, Progresso: 80}

	if err := i.AtualizarProgresso(100, agora); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if i.Status != StatusConcluida {
		t.Fatalf("esperado CONCLUIDA, veio %s", i.Status)
	}
	if i.DataFim == nil || !i.DataFim.Equal(agora) {
		t.Fatal("data de fim deveria ser registrada")
	}
}

func TestConcluir(t *testing.T) {
	agora := time.Now()
	i := Intervencao{Status: StatusAtiva, Progresso: 40}

	if err := i.Concluir(agora); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if i.Progresso != 100 || i.Status != StatusConcluida || i.DataFim == nil {
		t.Fatalf("conclusão incompleta: %+v", i)
	}

	if err := i.Concluir(agora); err == nil {
		t.Fatal("concluir duas vezes deveria falhar")
	}
}

func TestCancelarNaoAlteraDataFim(t *testing.T) {
	i := Intervencao{Status: StatusAtiva, Progresso: 30}

	i.Cancelar()

	if i.Status != StatusCancelada {
		t.Fatalf("esperado CANCELADA, veio %s", i.Status)
	}
	if i.DataFim != nil {
		t.Fatal("cancelamento não deveria registrar data de fim")
	}
}

func TestParseStatusLegado(t *testing.T) {
	status, err := ParseStatus("EM_ANDAMENTO")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if status != StatusAtiva {
		t.Fatalf("EM_ANDAMENTO deveria mapear para ATIVA, veio %s", status)
	}

	if _, err := ParseStatus("PAUSADA"); err == nil {
		t.Fatal("status desconhecido deveria falhar")
	}
}
