package openapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface — обработчики всех операций OpenAPI-документа.
type ServerInterface interface {
	// (GET /api/v1/files)
	ListFiles(w http.ResponseWriter, r *http.Request, params ListFilesParams)
	// (POST /api/v1/files)
	CreateFile(w http.ResponseWriter, r *http.Request)
	// (GET /api/v1/files/{id})
	GetFile(w http.ResponseWriter, r *http.Request, id FileId)
	// (PUT /api/v1/files/{id})
	UpdateFile(w http.ResponseWriter, r *http.Request, id FileId)
	// (DELETE /api/v1/files/{id})
	DeleteFile(w http.ResponseWriter, r *http.Request, id FileId)
	// (POST /api/v1/auth/register)
	Register(w http.ResponseWriter, r *http.Request)
	// (POST /api/v1/auth/login)
	Login(w http.ResponseWriter, r *http.Request)
	// (GET /api/v1/openapi.json)
	GetOpenAPIDocument(w http.ResponseWriter, r *http.Request)
	// (GET /health/live)
	HealthLive(w http.ResponseWriter, r *http.Request)
	// (GET /health/ready)
	HealthReady(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	GetMetrics(w http.ResponseWriter, r *http.Request)
}

// MiddlewareFunc — middleware отдельной операции.
type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper разбирает параметры запроса и вызывает ServerInterface.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError — параметр не удалось разобрать.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("некорректный формат параметра %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

func (siw *ServerInterfaceWrapper) wrap(h http.Handler) http.Handler {
	for _, mw := range siw.HandlerMiddlewares {
		h = mw(h)
	}
	return h
}

// bindFileID разбирает {id}. false — ответ об ошибке уже записан.
func (siw *ServerInterfaceWrapper) bindFileID(w http.ResponseWriter, r *http.Request) (FileId, bool) {
	var id FileId
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return id, false
	}
	return id, true
}

// ListFiles — разбор query-параметров списка.
func (siw *ServerInterfaceWrapper) ListFiles(w http.ResponseWriter, r *http.Request) {
	var params ListFilesParams
	query := r.URL.Query()

	bindings := []struct {
		name string
		dest **string
	}{
		{"search", &params.Search},
		{"startDate", &params.StartDate},
		{"endDate", &params.EndDate},
		{"last7Days", &params.Last7Days},
		{"last30Days", &params.Last30Days},
		{"lastYear", &params.LastYear},
		{"page", &params.Page},
		{"limit", &params.Limit},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: b.name, Err: err})
			return
		}
	}

	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListFiles(w, r, params)
	})).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) CreateFile(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.CreateFile)).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) GetFile(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.bindFileID(w, r)
	if !ok {
		return
	}
	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetFile(w, r, id)
	})).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) UpdateFile(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.bindFileID(w, r)
	if !ok {
		return
	}
	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.UpdateFile(w, r, id)
	})).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.bindFileID(w, r)
	if !ok {
		return
	}
	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteFile(w, r, id)
	})).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) Register(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.Register)).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) Login(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.Login)).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) GetOpenAPIDocument(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.GetOpenAPIDocument)).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) HealthLive(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.HealthLive)).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) HealthReady(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.HealthReady)).ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) GetMetrics(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.GetMetrics)).ServeHTTP(w, r)
}

// ChiServerOptions — параметры регистрации маршрутов.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler создаёт новый chi-роутер со всеми маршрутами.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerFromMux регистрирует маршруты в существующем роутере.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{BaseRouter: r})
}

// HandlerWithOptions регистрирует маршруты с указанными параметрами.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}
	base := options.BaseURL

	r.Group(func(r chi.Router) {
		r.Get(base+"/api/v1/files", wrapper.ListFiles)
		r.Post(base+"/api/v1/files", wrapper.CreateFile)
		r.Get(base+"/api/v1/files/{id}", wrapper.GetFile)
		r.Put(base+"/api/v1/files/{id}", wrapper.UpdateFile)
		r.Delete(base+"/api/v1/files/{id}", wrapper.DeleteFile)
		r.Post(base+"/api/v1/auth/register", wrapper.Register)
		r.Post(base+"/api/v1/auth/login", wrapper.Login)
		r.Get(base+"/api/v1/openapi.json", wrapper.GetOpenAPIDocument)
		r.Get(base+"/health/live", wrapper.HealthLive)
		r.Get(base+"/health/ready", wrapper.HealthReady)
		r.Get(base+"/metrics", wrapper.GetMetrics)
	})

	return r
}
