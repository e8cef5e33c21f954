package symbols

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/raymyers/rasm/pkg/token"
)

var _ = Describe("Env", func() {
	var env *Env

	BeforeEach(func() {
		env = New()
	})

	It("should resolve global constants and aliases", func() {
		env.DefineConstant("SIZE", []string{"10"})
		env.DefineAlias("tmp", []string{"r16"})

		v, ok := env.ResolveConstant("SIZE")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal([]string{"10"}))

		a, ok := env.ResolveAlias("tmp")
		Expect(ok).To(BeTrue())
		Expect(a).To(Equal([]string{"r16"}))

		_, ok = env.ResolveAlias("SIZE")
		Expect(ok).To(BeFalse())
	})

	It("should resolve variables with their type", func() {
		env.DefineVariable("counter", token.TypeByte)
		env.DefineVariable("main", token.TypePrgPtr)

		typ, ok := env.ResolveVariable("counter")
		Expect(ok).To(BeTrue())
		Expect(typ).To(Equal(token.TypeByte))

		typ, ok = env.ResolveVariable("main")
		Expect(ok).To(BeTrue())
		Expect(typ.IsPointer()).To(BeTrue())
	})

	It("should scope procedure symbols", func() {
		env.DefineAlias("tmp", []string{"r16"})
		p := env.EnterProc("delay")
		p.SetArg("count", []string{"r24"})
		env.DefineAlias("tmp", []string{"r17"})
		env.DefineConstant("STEP", []string{"4"})

		Expect(env.Current()).To(BeIdenticalTo(p))
		a, _ := env.ResolveAlias("count")
		Expect(a).To(Equal([]string{"r24"}))
		a, _ = env.ResolveAlias("tmp")
		Expect(a).To(Equal([]string{"r17"}))
		_, ok := env.ResolveConstant("STEP")
		Expect(ok).To(BeTrue())

		env.LeaveProc()
		Expect(env.Current()).To(BeNil())
		a, _ = env.ResolveAlias("tmp")
		Expect(a).To(Equal([]string{"r16"}))
		_, ok = env.ResolveAlias("count")
		Expect(ok).To(BeFalse())
		_, ok = env.ResolveConstant("STEP")
		Expect(ok).To(BeFalse())
	})

	It("should keep procedures defined by discovery", func() {
		p := env.DefineProcedure("send")
		p.SetArg("data", []string{"r24"})
		p.SetArg("data", []string{"r22"})

		got, ok := env.ResolveProcedure("send")
		Expect(ok).To(BeTrue())
		Expect(got.Args).To(HaveLen(1))
		Expect(got.Args[0].Raw).To(Equal([]string{"r22"}))
		Expect(env.EnterProc("send")).To(BeIdenticalTo(p))

		_, ok = env.ResolveProcedure("missing")
		Expect(ok).To(BeFalse())
	})
})
