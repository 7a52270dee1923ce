package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add    func(AddArgs) (Result, error)
	Edit   func(EditArgs) (Result, error)
	Done   func(DoneArgs) (Result, error)
	Delete func(DeleteArgs) (Result, error)
	Move   func(MoveArgs) (Result, error)
	AI     func(AIArgs) (Result, error)
	Sync   func() (Result, error)
	Help   func() (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "add handler not configured"}
		}
		return handlers.Add(*cmd.Add)
	case TypeEdit:
		if handlers.Edit == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "edit handler not configured"}
		}
		return handlers.Edit(*cmd.Edit)
	case TypeDone:
		if handlers.Done == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "done handler not configured"}
		}
		return handlers.Done(*cmd.Done)
	case TypeDelete:
		if handlers.Delete == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "del handler not configured"}
		}
		return handlers.Delete(*cmd.Delete)
	case TypeMove:
		if handlers.Move == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "move handler not configured"}
		}
		return handlers.Move(*cmd.Move)
	case TypeAI:
		if handlers.AI == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "ai handler not configured"}
		}
		return handlers.AI(*cmd.AI)
	case TypeSync:
		if handlers.Sync == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "sync handler not configured"}
		}
		return handlers.Sync()
	case TypeHelp:
		if handlers.Help == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "help handler not configured"}
		}
		return handlers.Help()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
