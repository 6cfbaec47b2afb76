package cpp

const headerTemplate = `{{.Header}}
#pragma once
{{range .Includes}}
#include {{.}}
{{- end}}

class {{.Name}} : public {{.Base}}
{
public:
{{- if .HasTypeID}}
    static constexpr {{.NS}}::PROTOCOLID TYPE = {{.TypeID}};
{{- end}}
{{- if .RPC}}
    using argument_type = {{.Argument}};
    using result_type = {{.Result}};
    using server_handler = std::function<bool(argument_type&, result_type&)>;
    using client_handler = std::function<void(const argument_type&, const result_type&)>;
    using timeout_handler = std::function<void(const argument_type&)>;
{{- else if .Message}}
    using run_handler = std::function<void({{.Name}}&)>;
{{- end}}
{{- with .Code}}

    enum FIELDS : {{.Type}}
    {
{{- range $.Fields}}
        {{.BitName}} = 1ull << {{.Index}},
{{- end}}
        ALL_FIELDS = {{.AllExpr}}
    };
{{- end}}
{{- if .Preamble}}
{{end}}
    {{.DefaultCtr}}
{{- range .Ctors}}
    {{.}}
{{- end}}
    {{.Name}}(const {{.Name}}& rhs) = default;
    {{.Name}}({{.Name}}&& rhs) = default;
    {{.Name}}& operator=(const {{.Name}}& rhs) = default;
    {{.Name}}& operator=({{.Name}}&& rhs) = default;
    virtual ~{{.Name}}() override = default;

    bool operator==(const {{.Name}}& rhs) const
    {
        return {{.EqualExpr}};
    }
    bool operator!=(const {{.Name}}& rhs) const { return !(*this == rhs); }
{{if .HasTypeID}}
    virtual {{.NS}}::PROTOCOLID get_type() const override { return TYPE; }
    virtual const char* get_name() const override { return "{{.Name}}"; }
    virtual size_t maxsize() const override { return {{.MaxSize}}; }
{{- end}}
    virtual {{.DupBase}}* dup() const override { return new {{.Name}}(*this); }
{{- if .Message}}
    virtual void run() override;
{{- end}}
{{- if .Dump}}
    virtual {{.NS}}::ostringstream& dump({{.NS}}::ostringstream& out) const override;
{{- end}}
{{- if .Message}}

    static void on_run(run_handler handler) { _run_handler = std::move(handler); }
{{- end}}
{{- if .RPC}}

    argument_type* argument() const { return static_cast<argument_type*>(_argument); }
    result_type* result() const { return static_cast<result_type*>(_result); }

    virtual bool server({{.NS}}::rpcdata* argument, {{.NS}}::rpcdata* result) override;
    virtual void client({{.NS}}::rpcdata* argument, {{.NS}}::rpcdata* result) override;
    virtual void timeout({{.NS}}::rpcdata* argument) override;

    static {{.Name}}* call(const argument_type& arg) { return static_cast<{{.Name}}*>({{.NS}}::rpc::call(TYPE, arg)); }
    static void on_server(server_handler handler) { _server_handler = std::move(handler); }
    static void on_client(client_handler handler) { _client_handler = std::move(handler); }
    static void on_timeout(timeout_handler handler) { _timeout_handler = std::move(handler); }
{{- end}}
{{- with .Code}}
{{range $.Fields}}
    void set_{{.Name}}() { {{$.Code.Name}} |= {{.BitName}}; }
    void set_{{.Name}}(const {{.Type}}& value) { {{$.Code.Name}} |= {{.BitName}}; {{.Name}} = value; }
{{- end}}
    void set_all_fields() { {{.Name}} = ALL_FIELDS; }
    void clean_default()
    {
{{- range $.Fields}}
        if ({{.Name}} == {{.DefaultExpr}}) {{$.Code.Name}} &= ~{{.BitName}};
{{- end}}
    }
{{- end}}

    virtual {{.NS}}::octetsstream& pack({{.NS}}::octetsstream& os) const override;
    virtual {{.NS}}::octetsstream& unpack({{.NS}}::octetsstream& os) override;
{{- if or .Code .Fields}}

public:
{{- with .Code}}
    {{.Type}} {{.Name}} = 0;
{{- end}}
{{- range .Fields}}
    {{.Decl}};
{{- end}}
{{- end}}
{{- if .Message}}

private:
    static run_handler _run_handler;
{{- end}}
{{- if .RPC}}

private:
    static server_handler _server_handler;
    static client_handler _client_handler;
    static timeout_handler _timeout_handler;
{{- end}}
};
`

const sourceTemplate = `{{.Header}}
#include "{{.Name}}.h"
{{- if .RPC}}
#include <cstdio>
{{- end}}
{{- if .Message}}

{{.Name}}::run_handler {{.Name}}::_run_handler;

void {{.Name}}::run()
{
    if (_run_handler) _run_handler(*this);
}
{{- end}}
{{- if .RPC}}

{{.Name}}::server_handler {{.Name}}::_server_handler;
{{.Name}}::client_handler {{.Name}}::_client_handler;
{{.Name}}::timeout_handler {{.Name}}::_timeout_handler;

bool {{.Name}}::server({{.NS}}::rpcdata* argument, {{.NS}}::rpcdata* result)
{
    if (_server_handler) return _server_handler(*static_cast<argument_type*>(argument), *static_cast<result_type*>(result));
    std::fprintf(stderr, "{{.Name}}: unhandled remote-call %u\n", static_cast<unsigned>(TYPE));
    return false;
}

void {{.Name}}::client({{.NS}}::rpcdata* argument, {{.NS}}::rpcdata* result)
{
    if (_client_handler) _client_handler(*static_cast<argument_type*>(argument), *static_cast<result_type*>(result));
}

void {{.Name}}::timeout({{.NS}}::rpcdata* argument)
{
    if (_timeout_handler) _timeout_handler(*static_cast<argument_type*>(argument));
}
{{- end}}

{{.NS}}::octetsstream& {{.Name}}::pack({{.NS}}::octetsstream& os) const
{
{{- if .RPC}}
    {{.NS}}::rpc::pack(os);
{{- end}}
{{- with .Code}}
    os << {{.Name}};
{{- end}}
{{- range .Fields}}
    {{.PackLine}}
{{- end}}
    return os;
}

{{.NS}}::octetsstream& {{.Name}}::unpack({{.NS}}::octetsstream& os)
{
{{- if .RPC}}
    {{.NS}}::rpc::unpack(os);
{{- end}}
{{- with .Code}}
    os >> {{.Name}};
{{- end}}
{{- range .Fields}}
    {{.UnpackLine}}
{{- end}}
    return os;
}
{{- if .Dump}}

{{.NS}}::ostringstream& {{.Name}}::dump({{.NS}}::ostringstream& out) const
{
    out << "{{.Name}}{";
{{- range .DumpLines}}
    {{.}}
{{- end}}
    out << "}";
    return out;
}
{{- end}}
`

const stateTemplate = `{{.Header}}
{{- range .Members}}
#include "{{.Name}}.h"
{{- end}}

namespace
{
{{- range .Members}}
const bool registered_{{.Name}} = {{$.NS}}::protocol::register_protocol({{.Name}}::TYPE, new {{.Name}}());
{{- end}}
} // namespace
`

const definitionsTemplate = `{{.Header}}
#pragma once

#include "types.h"

static constexpr {{.NS}}::PROTOCOLID MAXPROTOCOLID = {{.Max}};

enum PROTOCOL_TYPE
{
{{- range .Entries}}
    PROTOCOL_TYPE_{{upper .Name}} = {{.TypeID}},
{{- end}}
};
`
